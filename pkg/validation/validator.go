package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once

	zaPhonePattern = regexp.MustCompile(`^(\+27|0)[1-9][0-9]{8}$`)
)

// EntityTypes is the closed set of tracked entity kinds
var EntityTypes = []string{"phone", "email", "domain", "company"}

// ScamTypes is the closed set of report scam types
var ScamTypes = []string{"fake_pop", "ghost_business", "whatsapp_scam", "fake_document", "other"}

// ReportCategories is the closed set of report categories
var ReportCategories = []string{"payment", "document", "business", "communication"}

// Get returns the shared validator with custom rules registered
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// Report JSON field names instead of Go field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("za_phone", func(fl validator.FieldLevel) bool {
			return zaPhonePattern.MatchString(stripSpaces(fl.Field().String()))
		})
		_ = validate.RegisterValidation("entity_type", oneOf(EntityTypes))
		_ = validate.RegisterValidation("scam_type", oneOf(ScamTypes))
		_ = validate.RegisterValidation("report_category", oneOf(ReportCategories))
	})
	return validate
}

// ValidateStruct validates s and returns a *ValidationError with per-field messages
func ValidateStruct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return err
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, a := range allowed {
			if v == a {
				return true
			}
		}
		return false
	}
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
