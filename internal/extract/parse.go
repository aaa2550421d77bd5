// Package extract turns model output into structured job fields. Model output
// is treated as untrusted: fences and chatter around the JSON are stripped,
// malformed JSON gets a lenient second pass and known field aliases are folded.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

var (
	ErrInvalidJSON  = errors.New("model output is not valid JSON")
	ErrMissingField = errors.New("required field missing")
)

type ExtractedJob struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	Role             string   `json:"role,omitempty"`
	Location         string   `json:"location,omitempty"`
	WorkArrangement  string   `json:"workArrangement,omitempty"`
	SalaryMin        *int     `json:"salaryMin,omitempty"`
	SalaryMax        *int     `json:"salaryMax,omitempty"`
	SalaryCurrency   string   `json:"salaryCurrency,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	Requirements     []string `json:"requirements,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Benefits         []string `json:"benefits,omitempty"`
	ExperienceLevel  string   `json:"experienceLevel,omitempty"`
	EmploymentType   string   `json:"employmentType,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	ContactName      string   `json:"contactName,omitempty"`
	ContactEmail     string   `json:"contactEmail,omitempty"`
}

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// isolateObject returns the first {...} block, preferring fenced content.
func isolateObject(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// normalizeJSON yields strict JSON for raw model output, falling back to a
// JSON5 parse for trailing commas, single quotes and comments.
func normalizeJSON(raw string) (string, error) {
	obj := isolateObject(raw)
	if obj == "" {
		return "", ErrInvalidJSON
	}
	if gjson.Valid(obj) {
		return obj, nil
	}

	var loose map[string]any
	if err := json5.Unmarshal([]byte(obj), &loose); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	b, err := json.Marshal(loose)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return string(b), nil
}

// Parse extracts an ExtractedJob from model output. title (or role) and
// company are required.
func Parse(raw string) (*ExtractedJob, error) {
	doc, err := normalizeJSON(raw)
	if err != nil {
		return nil, err
	}
	root := gjson.Parse(doc)

	job := &ExtractedJob{
		Title:           str(root, "title", "jobTitle", "job_title", "position"),
		Company:         str(root, "company", "companyName", "company_name", "employer"),
		Role:            str(root, "role", "roleTitle", "role_title"),
		Location:        str(root, "location", "jobLocation", "job_location"),
		WorkArrangement: strings.ToLower(str(root, "workArrangement", "work_arrangement", "workplaceType", "remote")),
		SalaryCurrency:  strings.ToUpper(str(root, "salaryCurrency", "salary_currency", "currency")),
		ExperienceLevel: strings.ToLower(str(root, "experienceLevel", "experience_level", "seniority")),
		EmploymentType:  strings.ToLower(str(root, "employmentType", "employment_type", "jobType")),
		Summary:         str(root, "summary", "description"),
		ContactName:     str(root, "contactName", "contact_name", "contact.name", "recruiter"),
		ContactEmail:    str(root, "contactEmail", "contact_email", "contact.email"),

		Skills:           list(root, "skills", "techStack", "tech_stack", "keywords"),
		Requirements:     list(root, "requirements", "qualifications"),
		Responsibilities: list(root, "responsibilities", "duties"),
		Benefits:         list(root, "benefits", "perks"),
	}

	job.SalaryMin = integer(root, "salaryMin", "salary_min", "salary.min")
	job.SalaryMax = integer(root, "salaryMax", "salary_max", "salary.max")
	if job.SalaryMin == nil && job.SalaryMax == nil {
		if s := str(root, "salary", "salaryRange", "salary_range"); s != "" {
			min, max, cur := ParseSalaryRange(s)
			job.SalaryMin, job.SalaryMax = min, max
			if job.SalaryCurrency == "" {
				job.SalaryCurrency = cur
			}
		}
	}
	if job.WorkArrangement == "true" {
		job.WorkArrangement = "remote"
	} else if job.WorkArrangement == "false" {
		job.WorkArrangement = ""
	}

	if job.Title == "" {
		job.Title = job.Role
	}
	if job.Role == "" {
		job.Role = job.Title
	}
	if job.Title == "" {
		return nil, fmt.Errorf("%w: title", ErrMissingField)
	}
	if job.Company == "" {
		return nil, fmt.Errorf("%w: company", ErrMissingField)
	}
	return job, nil
}

func first(root gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := root.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func str(root gjson.Result, keys ...string) string {
	v := first(root, keys...)
	switch v.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		s := strings.TrimSpace(v.String())
		if strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
			return ""
		}
		return s
	default:
		return ""
	}
}

func list(root gjson.Result, keys ...string) []string {
	v := first(root, keys...)
	var out []string
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
	case v.Type == gjson.String:
		for _, part := range strings.FieldsFunc(v.String(), func(r rune) bool { return r == ',' || r == ';' || r == '\n' }) {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func integer(root gjson.Result, keys ...string) *int {
	v := first(root, keys...)
	switch v.Type {
	case gjson.Number:
		n := int(v.Int())
		return &n
	case gjson.String:
		min, _, _ := ParseSalaryRange(v.String())
		return min
	}
	return nil
}

var amountRe = regexp.MustCompile(`(\d[\d,.]*)\s*([kKmM])?`)

// ParseSalaryRange reads strings like "$120k - 150k" or "€50.000–60.000".
func ParseSalaryRange(s string) (min, max *int, currency string) {
	currency = detectCurrency(s)

	matches := amountRe.FindAllStringSubmatch(s, -1)
	var values []int
	var suffixes []string
	for _, m := range matches {
		digits := strings.NewReplacer(",", "", ".", "").Replace(m[1])
		// "1.5k" keeps its decimal meaning
		if strings.Contains(m[1], ".") && m[2] != "" {
			if f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
				values = append(values, int(f*multiplier(m[2])))
				suffixes = append(suffixes, m[2])
				continue
			}
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		values = append(values, int(float64(n)*multiplier(m[2])))
		suffixes = append(suffixes, m[2])
	}
	if len(values) == 0 {
		return nil, nil, currency
	}

	// "$120-150k": the suffix on the upper bound applies to the lower one too
	if len(values) >= 2 && suffixes[0] == "" && suffixes[1] != "" && values[0] < 1000 {
		values[0] = int(float64(values[0]) * multiplier(suffixes[1]))
	}

	lo := values[0]
	min = &lo
	if len(values) >= 2 {
		hi := values[1]
		if hi < lo {
			lo, hi = hi, lo
			min = &lo
		}
		max = &hi
	}
	return min, max, currency
}

func multiplier(suffix string) float64 {
	switch strings.ToLower(suffix) {
	case "k":
		return 1_000
	case "m":
		return 1_000_000
	default:
		return 1
	}
}

func detectCurrency(s string) string {
	upper := strings.ToUpper(s)
	switch {
	case strings.Contains(s, "€") || strings.Contains(upper, "EUR"):
		return "EUR"
	case strings.Contains(s, "£") || strings.Contains(upper, "GBP"):
		return "GBP"
	case strings.Contains(upper, "IDR"):
		return "IDR"
	case strings.Contains(s, "$") || strings.Contains(upper, "USD"):
		return "USD"
	default:
		return ""
	}
}
