package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/yoockh/applytrack/internal/utils"
)

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"not found", gorm.ErrRecordNotFound, utils.ErrNotFound},
		{"wrapped not found", fmt.Errorf("take: %w", gorm.ErrRecordNotFound), utils.ErrNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, utils.ErrConflict},
		{"foreign key", gorm.ErrForeignKeyViolated, utils.ErrNotFound},
		{"sentinel passes through", utils.ErrNotFound, utils.ErrNotFound},
		{"other", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translate(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}
}
