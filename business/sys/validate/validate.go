// Package validate contains the support for validating models.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// validate holds the settings and caches for validating request struct values.
var validate *validator.Validate

// translator is a cache of locale and translation information.
var translator ut.Translator

func init() {

	// Instantiate a validator.
	validate = validator.New()

	// Create a translator for english so the error messages are
	// more human-readable than technical.
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")

	// Register the english error messages for use.
	en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerNetworkRules()
}

// registerNetworkRules adds the checks for values found in blocks and
// signed messages.
func registerNetworkRules() {
	rules := []struct {
		tag string
		msg string
		fn  validator.Func
	}{
		{
			tag: "account_number",
			msg: "{0} must be a 64 character lowercase hex account number",
			fn: func(fl validator.FieldLevel) bool {
				return isHex(fl.Field().String(), account.KeyHexLength)
			},
		},
		{
			tag: "signature",
			msg: "{0} must be a 128 character lowercase hex signature",
			fn: func(fl validator.FieldLevel) bool {
				return isHex(fl.Field().String(), account.SignatureHexLength)
			},
		},
		{
			tag: "memo",
			msg: "{0} can only contain alphanumeric values, spaces and underscores",
			fn: func(fl validator.FieldLevel) bool {
				return models.ValidMemo(fl.Field().String())
			},
		},
	}

	for _, rule := range rules {
		validate.RegisterValidation(rule.tag, rule.fn)

		msg := rule.msg
		tag := rule.tag
		validate.RegisterTranslation(tag, translator,
			func(ut ut.Translator) error {
				return ut.Add(tag, msg, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(tag, fe.Field())
				return t
			},
		)
	}
}

// Check validates the provided model against it's declared tags.
func Check(val any) error {
	if err := validate.Struct(val); err != nil {

		// Use a type assertion to get the real error value.
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return err
		}

		var fields FieldErrors
		for _, verror := range verrors {
			field := FieldError{
				Field: verror.Field(),
				Error: verror.Translate(translator),
			}
			fields = append(fields, field)
		}

		return fields
	}

	return nil
}

// AccountNumber checks a value taken from outside a model, such as a url
// path parameter, is an account number the ledger can key balances by.
func AccountNumber(field string, value string) error {
	if isHex(value, account.KeyHexLength) {
		return nil
	}

	return FieldErrors{
		{
			Field: field,
			Error: fmt.Sprintf("%s must be a 64 character lowercase hex account number", field),
		},
	}
}

// isHex only accepts lowercase digits. Account numbers are compared as
// strings, so an uppercase form would name a different ledger entry.
func isHex(s string, length int) bool {
	if len(s) != length {
		return false
	}

	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}

	return true
}
