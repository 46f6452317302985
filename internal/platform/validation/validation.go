// Package validation envuelve go-playground/validator con tags propios
// (fechas YYYY-MM-DD, horas HH:MM) y mensajes legibles para 400s.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Get devuelve el validador singleton.
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Nombres de campo según el tag json (lo que ve el cliente).
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		_ = v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
			return validLayout(fl.Field(), "2006-01-02")
		})
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			return validLayout(fl.Field(), "15:04")
		})

		validate = v
	})
	return validate
}

// Error agrupa los errores por campo.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// Struct valida s y traduce los errores del validador.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	out := &Error{Fields: make(map[string]string, len(ves))}
	for _, fe := range ves {
		out.Fields[fe.Field()] = translate(fe)
	}
	return out
}

func translate(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return f + " must be a valid email"
	case "url":
		return f + " must be a valid url"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", f, fe.Param())
	case "ymd":
		return f + " must be YYYY-MM-DD"
	case "hhmm":
		return f + " must be HH:MM"
	case "dive", "uuid":
		return f + " is invalid"
	default:
		return fmt.Sprintf("%s failed %s", f, fe.Tag())
	}
}

func validLayout(v reflect.Value, layout string) bool {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.String {
		return false
	}
	s := strings.TrimSpace(v.String())
	if s == "" {
		return true
	}
	_, err := time.Parse(layout, s)
	return err == nil
}
