package extract

import (
	"fmt"
	"strings"
)

// MaxInputRunes bounds the posting text sent upstream.
const MaxInputRunes = 20000

const promptTemplate = `Extract the job posting below into JSON. Answer with one JSON object only, no markdown.

Schema:
{
  "title": "job title",
  "company": "hiring company",
  "role": "normalised role, e.g. Backend Engineer",
  "location": "city/country or Remote",
  "workArrangement": "remote | hybrid | onsite",
  "salaryMin": number or null,
  "salaryMax": number or null,
  "salaryCurrency": "ISO code or null",
  "skills": ["technologies and skills"],
  "requirements": ["..."],
  "responsibilities": ["..."],
  "benefits": ["..."],
  "experienceLevel": "junior | mid | senior | lead | null",
  "employmentType": "full-time | part-time | contract | internship | null",
  "summary": "two sentences",
  "contactName": "recruiter name or null",
  "contactEmail": "recruiter email or null"
}

Use null for anything the posting does not state.
%s
Posting:
%s
`

// BuildPrompt renders the fixed instruction template for text plus optional
// extra context (for example the resume the user is targeting).
func BuildPrompt(text, context string) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) > MaxInputRunes {
		r = r[:MaxInputRunes]
	}

	extra := ""
	if c := strings.TrimSpace(context); c != "" {
		extra = "\nAdditional context from the user:\n" + c + "\n"
	}
	return fmt.Sprintf(promptTemplate, extra, string(r))
}
