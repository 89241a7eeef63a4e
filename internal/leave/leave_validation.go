package leave

import (
	"strings"

	"go-leave/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the leave_type binding tag, which accepts
// only the configured categories, case-insensitively.
func RegisterValidations(categories []string) error {
	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}

	return apperror.RegisterValidation("leave_type", func(fl validator.FieldLevel) bool {
		_, ok := allowed[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
		return ok
	})
}
