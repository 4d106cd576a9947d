package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
}

type validator struct {
	v *playground.Validate
}

var (
	hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	once        sync.Once
)

// New returns a validator with the custom rules registered.
func New() Validator {
	v := playground.New()
	mustRegister(v)
	return &validator{v: v}
}

// RegisterGinValidations installs the custom rules on gin's binding engine
// so `binding:"..."` tags can use them.
func RegisterGinValidations() error {
	var err error
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*playground.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		mustRegister(v)
	})
	return err
}

func mustRegister(v *playground.Validate) {
	rules := map[string]playground.Func{
		"sex":         validateSex,
		"hhmm":        validateHHMM,
		"alertsource": validateAlertSource,
		"notfuture":   validateNotFuture,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %s: %v", tag, err))
		}
	}
}

func (v *validator) Validate(obj interface{}) error {
	if err := v.v.Struct(obj); err != nil {
		return errors.New(Describe(err))
	}
	return nil
}

// Describe turns validator errors into a short message naming each field.
func Describe(err error) string {
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "min", "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max", "lte":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "email":
			parts = append(parts, field+" must be a valid email")
		case "sex":
			parts = append(parts, field+" must be M, F or X")
		case "hhmm":
			parts = append(parts, field+" must be HH:MM")
		case "alertsource":
			parts = append(parts, field+" must be app, kiosk or admin")
		case "notfuture":
			parts = append(parts, field+" cannot be in the future")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func validateSex(fl playground.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "M", "F", "X":
		return true
	}
	return false
}

func validateHHMM(fl playground.FieldLevel) bool {
	return hhmmPattern.MatchString(fl.Field().String())
}

func validateAlertSource(fl playground.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "app", "kiosk", "admin":
		return true
	}
	return false
}

// validateNotFuture accepts an empty string or a YYYY-MM-DD date not after today.
func validateNotFuture(fl playground.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return false
	}
	return !d.After(time.Now())
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
