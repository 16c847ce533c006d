package config

import (
	"errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_trans "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")

	validate = validator.New()
	_ = en_trans.RegisterDefaultTranslations(validate, trans)
}

// Validate enforces Config's struct tags, translating the first failing
// field into a human-readable message. A misconfigured pooler should
// refuse to start rather than run with partially valid settings, so
// this returns on the first violation instead of collecting all of them.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			return errors.New(e.Translate(trans))
		}
	}
	return err
}
