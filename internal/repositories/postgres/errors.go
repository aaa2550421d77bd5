package postgres

import (
	"errors"

	"github.com/yoockh/applytrack/internal/utils"
	"gorm.io/gorm"
)

// translate maps gorm errors (TranslateError must be enabled on the *gorm.DB)
// to the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return utils.ErrConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return utils.ErrNotFound
	default:
		return err
	}
}
