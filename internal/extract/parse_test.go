package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FencedJSON(t *testing.T) {
	raw := "Sure! Here it is:\n```json\n{\"title\":\"Backend Engineer\",\"company\":\"Acme\",\"skills\":[\"Go\",\"Postgres\"],\"salaryMin\":100000,\"salaryMax\":140000}\n```\nLet me know."

	job, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, "Backend Engineer", job.Role)
	assert.Equal(t, []string{"Go", "Postgres"}, job.Skills)
	require.NotNil(t, job.SalaryMin)
	assert.Equal(t, 100000, *job.SalaryMin)
	assert.Equal(t, 140000, *job.SalaryMax)
}

func TestParse_LenientJSON5(t *testing.T) {
	raw := `{
		// model left a comment
		title: 'Data Engineer',
		company_name: "Globex",
		skills: "Python, Spark; Airflow",
	}`

	job, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", job.Title)
	assert.Equal(t, "Globex", job.Company)
	assert.Equal(t, []string{"Python", "Spark", "Airflow"}, job.Skills)
}

func TestParse_TitleFallsBackToRole(t *testing.T) {
	job, err := Parse(`{"role":"SRE","company":"Initech"}`)
	require.NoError(t, err)
	assert.Equal(t, "SRE", job.Title)
}

func TestParse_SalaryString(t *testing.T) {
	job, err := Parse(`{"title":"Dev","company":"X","salary":"$120k - 150k"}`)
	require.NoError(t, err)
	require.NotNil(t, job.SalaryMin)
	require.NotNil(t, job.SalaryMax)
	assert.Equal(t, 120000, *job.SalaryMin)
	assert.Equal(t, 150000, *job.SalaryMax)
	assert.Equal(t, "USD", job.SalaryCurrency)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("no json at all")
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = Parse("{title: ")
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = Parse(`{"title":"Dev"}`)
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = Parse(`{"company":"Acme","title":null}`)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestParseSalaryRange(t *testing.T) {
	cases := []struct {
		in       string
		min, max int
		currency string
	}{
		{"$120-150k", 120000, 150000, "USD"},
		{"€50.000–60.000", 50000, 60000, "EUR"},
		{"£45k to £55k", 45000, 55000, "GBP"},
		{"90000 - 80000 USD", 80000, 90000, "USD"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			min, max, cur := ParseSalaryRange(tc.in)
			require.NotNil(t, min)
			require.NotNil(t, max)
			assert.Equal(t, tc.min, *min)
			assert.Equal(t, tc.max, *max)
			assert.Equal(t, tc.currency, cur)
		})
	}

	min, max, _ := ParseSalaryRange("competitive")
	assert.Nil(t, min)
	assert.Nil(t, max)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("  Go developer wanted  ", "targeting my backend resume")
	assert.Contains(t, p, "Go developer wanted")
	assert.Contains(t, p, "targeting my backend resume")

	long := strings.Repeat("x", MaxInputRunes+500)
	p = BuildPrompt(long, "")
	assert.NotContains(t, p, strings.Repeat("x", MaxInputRunes+1))
	assert.NotContains(t, p, "Additional context")
}
