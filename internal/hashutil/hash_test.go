package hashutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollingKnownValues(t *testing.T) {
	// h("a") = 97, h("ab") = 97*31 + 98 = 3105
	assert.Equal(t, "0", Rolling(""))
	assert.Equal(t, "2p", Rolling("a"))
	assert.Equal(t, "2e9", Rolling("ab"))
}

func TestRollingWrapsWithoutPanicking(t *testing.T) {
	long := ""
	for i := 0; i < 500; i++ {
		long += "senior golang engineer "
	}
	got := Rolling(long)
	assert.NotEmpty(t, got)
	assert.NotContains(t, got, "-")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Senior\tGo \n\n Engineer ", "senior go engineer"},
		{"ＡＣＭＥ Corp", "acme corp"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestKeyIgnoresFormattingButNotContext(t *testing.T) {
	a := Key("Backend Engineer\n\nAcme", "")
	b := Key("  backend   ENGINEER acme ", "")
	c := Key("Backend Engineer Acme", "resume-1")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
