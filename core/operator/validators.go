package operator

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/voyago/voyago/core"
)

var (
	// custom validation tags & texts
	roleTag  = "oprole"
	roleText = "invalid role"

	planTag  = "subplan"
	planText = "invalid subscription plan"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(planTag, planValidation)
	core.RegisterCustomTranslation(validate, translator, planTag, planText)
}

// roleValidation checks that the value is a known account role.
func roleValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, role := range AllRoles {
		if val == role {
			return true
		}
	}
	return false
}

// planValidation checks that the value is a known subscription plan.
func planValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, plan := range AllPlans {
		if val == plan {
			return true
		}
	}
	return false
}
