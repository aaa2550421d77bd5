package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoockh/applytrack/internal/models"
)

func TestNormalizeColorMode(t *testing.T) {
	assert.Equal(t, ColorAlways, NormalizeColorMode(" Always "))
	assert.Equal(t, ColorNever, NormalizeColorMode("never"))
	assert.Equal(t, ColorAuto, NormalizeColorMode("rainbow"))
}

func TestPlainOutputHasNoEscapes(t *testing.T) {
	var out, errOut bytes.Buffer
	u := New(&out, &errOut, ColorAlways, true)

	u.Successf("saved %d jobs\n", 3)
	u.Errorf("boom")
	assert.Equal(t, "saved 3 jobs\n", out.String())
	assert.Equal(t, "boom\n", errOut.String())
	assert.Equal(t, "offered", u.Status(models.StatusOffered))
}
