package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/mhplugin/internal/download"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance configures and returns the shared validator instance used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("data_path", func(fl validator.FieldLevel) bool {
			return isValidDataPath(fl.Field().String())
		})

		_ = v.RegisterValidation("max_package_size", func(fl validator.FieldLevel) bool {
			return fl.Field().Int() <= download.MaxPackageSize
		})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns a configured validator instance for use outside the config package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}

// isValidDataPath performs syntactic validation of directory settings without filesystem access.
func isValidDataPath(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	return !strings.ContainsRune(path, '\x00')
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Config("config.validate", "invalid configuration", err)
	}

	issues := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, describeFieldError(fe))
	}
	sort.Strings(issues)
	return apperrors.Config("config.validate", "invalid configuration: "+strings.Join(issues, "; "), nil)
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "data_path":
		return fmt.Sprintf("%s must be a non-empty path", field)
	case "oneof":
		return fmt.Sprintf("%s %v must be one of [%s]", field, fe.Value(), fe.Param())
	case "max_package_size":
		return fmt.Sprintf("%s %v exceeds the %d byte package limit", field, fe.Value(), download.MaxPackageSize)
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s %v violates %s=%s", field, fe.Value(), fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
