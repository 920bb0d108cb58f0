package middleware

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

var (
	validatorOnce sync.Once
	itemCodeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{1,49}$`)
)

// InitValidator registers the custom rules on gin's validator. Safe to call
// more than once.
func InitValidator() {
	validatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("item_code", validateItemCode)

		// Use JSON tag names for error messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "uri", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	})
}

// validateItemCode accepts material and product codes such as CELL-001.
func validateItemCode(fl validator.FieldLevel) bool {
	return itemCodeRegex.MatchString(fl.Field().String())
}

// ValidationErrorFormatter formats validation errors into a map
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[e.Field()] = formatValidationError(e)
		}
	}
	return fields
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "item_code":
		return "must be an uppercase code such as CELL-001"
	case "oneof":
		return "must be one of: " + e.Param()
	case "dive":
		return "has an invalid entry"
	default:
		return "is invalid"
	}
}

// BindJSON binds and validates the request body.
func BindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return bindError("invalid request body", err)
	}
	return nil
}

// BindURI binds and validates path parameters.
func BindURI(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindUri(obj); err != nil {
		return bindError("invalid path parameter", err)
	}
	return nil
}

// BindQuery binds and validates query parameters.
func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		return bindError("invalid query parameter", err)
	}
	return nil
}

func bindError(message string, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		appErr := apperror.Validation("validation failed")
		for field, msg := range ValidationErrorFormatter(validationErrors) {
			appErr.WithDetail(field, msg)
		}
		return appErr
	}
	return apperror.Validation(message + ": " + err.Error())
}
