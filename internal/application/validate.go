package application

import (
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/validation"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	validation.Configure(v)
	return v
}

// validateInput runs struct tags and merges extra field errors into one
// ValidationError.
func validateInput(in any, extra map[string]string) error {
	fields := map[string]string{}
	if err := validate.Struct(in); err != nil {
		for k, v := range validation.ToDetails(err) {
			fields[k] = v
		}
	}
	for k, v := range extra {
		fields[k] = v
	}
	if len(fields) == 0 {
		return nil
	}
	return apperror.Validation("invalid input", fields)
}
