package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	nicPattern   = regexp.MustCompile(`^([0-9]{9}[vVxX]|[0-9]{12})$`)
	phonePattern = regexp.MustCompile(`^(?:0|94|\+94)?(?:7(?:0|1|2|4|5|6|7|8)\d)\d{6}$`)
)

// Validator adapts go-playground/validator to echo.Validator and adds the
// "nic", "lkphone" and "maxbytes" tags.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("nic", func(fl validator.FieldLevel) bool {
		return IsNIC(fl.Field().String())
	})
	_ = v.RegisterValidation("lkphone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	// max counts runes; bcrypt limits passwords by bytes
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	if err := cv.v.Struct(i); err != nil {
		return describe(err)
	}
	return nil
}

func IsNIC(s string) bool   { return nicPattern.MatchString(s) }
func IsPhone(s string) bool { return phonePattern.MatchString(s) }

// describe turns validator output into a short message naming each failing field.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "nic":
		return fe.Field() + " must be a valid NIC"
	case "lkphone":
		return fe.Field() + " must be a valid contact number"
	case "uuid":
		return fe.Field() + " must be a valid id"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	}
	return fe.Field() + " is invalid"
}
