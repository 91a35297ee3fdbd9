// Package validation wraps go-playground/validator with English messages
// keyed by JSON field names.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/study-on/billing/internal/domain"
)

const (
	requiredTag  = "required"
	requiredText = "{0} must not be blank"

	emailTag  = "email"
	emailText = "{0} must be a valid email address of the form name@domain.tld"

	tierTag  = "course_tier"
	tierText = "{0} must be one of: free, rent, buy"
)

// Validator validates request structs and renders translated messages.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New creates a Validator with English translations registered.
func New() *Validator {
	locale := en.New()
	uni := ut.New(locale, locale)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(tierTag, func(fl validator.FieldLevel) bool {
		return domain.Tier(fl.Field().String()).IsValid()
	})

	registerTranslation(validate, translator, requiredTag, requiredText, true)
	registerTranslation(validate, translator, emailTag, emailText, true)
	registerTranslation(validate, translator, tierTag, tierText, false)

	return &Validator{validate: validate, translator: translator}
}

// Struct validates s and returns messages keyed by JSON field name.
// A nil map means s is valid.
func (v *Validator) Struct(s interface{}) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"request": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, ok := fields[fe.Field()]; ok {
			continue
		}
		fields[fe.Field()] = fe.Translate(v.translator)
	}
	return fields
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}
