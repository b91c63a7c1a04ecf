// Package auth validates login, signup and registration input before it is
// sent to the backend, and checks who is logged in on this device.
package auth

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// FormError is a validation failure carrying the message shown to the user.
type FormError struct {
	Field   string
	Message string
	Err     error
}

func (e *FormError) Error() string { return e.Message }

func (e *FormError) Unwrap() error { return e.Err }

// rule maps a failed field/tag pair to a message. Rules are checked in
// order so the most basic problem is reported first.
type rule struct {
	field string
	tag   string
	msg   string
}

func check(form any, rules []rule) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, r := range rules {
		for _, fe := range verrs {
			if (r.field == "" || fe.Field() == r.field) && fe.Tag() == r.tag {
				return &FormError{Field: fe.Field(), Message: r.msg}
			}
		}
	}
	fe := verrs[0]
	return &FormError{Field: fe.Field(), Message: fe.Error()}
}
