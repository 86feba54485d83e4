package provisioning

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func v() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

type tenantInput struct {
	Name string `validate:"notblank"`
}

type userInput struct {
	Name  string `validate:"notblank"`
	Email string `validate:"notblank,email"`
}

// validationMessage turns a validator error into a message for the caller,
// empty if input is valid
func validationMessage(input interface{}) string {
	err := v().Struct(input)
	if err == nil {
		return ""
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	e := verrs[0]
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "notblank":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s is not a valid email address", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// parseID parses a path identifier, only positive integers are valid
func parseID(ref string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
