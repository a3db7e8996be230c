// Package validator registers the domain tags used in request bindings on
// gin's validator/v10 engine and renders validation failures as text.
package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/aslima544/consultorio-api/internal/model"
)

var once sync.Once

// RegisterWithGin installs the custom tags on gin's default binding engine.
// It is safe to call more than once.
func RegisterWithGin() error {
	var err error
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		err = Register(v)
	})
	return err
}

// Register adds the weekday, weekref, roomkind, period and apptstatus tags
// and reports fields by their json name.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	tags := map[string]validator.Func{
		"weekday": func(fl validator.FieldLevel) bool {
			_, ok := model.ParseWeekday(fl.Field().String())
			return ok
		},
		"weekref": func(fl validator.FieldLevel) bool {
			return model.ValidWeekRef(fl.Field().String())
		},
		"roomkind": func(fl validator.FieldLevel) bool {
			_, ok := model.ParseRoomKind(fl.Field().String())
			return ok
		},
		"period": func(fl validator.FieldLevel) bool {
			_, ok := model.ParsePeriod(fl.Field().String())
			return ok
		},
		"apptstatus": func(fl validator.FieldLevel) bool {
			_, ok := model.ParseAppointmentStatus(fl.Field().String())
			return ok
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validation: %w", tag, err)
		}
	}
	return nil
}

var messages = map[string]string{
	"required":   "is required",
	"email":      "must be a valid email",
	"uuid":       "must be a valid uuid",
	"hexcolor":   "must be a hex color",
	"weekday":    "must be a weekday (segunda..sexta)",
	"weekref":    "must be a week reference like 2024-W05",
	"roomkind":   "must be fixed or rotating",
	"period":     "must be a known period",
	"apptstatus": "must be a known appointment status",
	"oneof":      "must be one of",
}

// Describe turns validator errors into a single readable line such as
// "name is required; email must be a valid email". Other errors are returned
// as their message.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, describeField(fe))
	}
	return strings.Join(parts, "; ")
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "max", "gt", "gte", "lt", "lte":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	}
	if msg, ok := messages[fe.Tag()]; ok {
		return fe.Field() + " " + msg
	}
	return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	if err == nil {
		return false
	}
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

// IsValidationError reports whether err came from struct validation.
func IsValidationError(err error) bool {
	_, ok := err.(validator.ValidationErrors)
	return ok
}
