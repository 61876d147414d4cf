package booking

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/wolfman30/ambu-dispatch/internal/catalog"
)

// FieldError names one field that failed a rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError is returned when required booking fields are missing or
// inconsistent.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field+" ("+f.Rule+")")
	}
	return "booking: invalid fields: " + strings.Join(names, ", ")
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	mustRegister(v, "city", func(fl validator.FieldLevel) bool {
		return catalog.IsCity(fl.Field().String())
	})
	mustRegister(v, "ambulance_type", func(fl validator.FieldLevel) bool {
		return AmbulanceType(fl.Field().String()).Valid()
	})
	// hospital_in_city reads the sibling City field of the struct being validated.
	mustRegister(v, "hospital_in_city", func(fl validator.FieldLevel) bool {
		parent := fl.Parent()
		if parent.Kind() == reflect.Ptr {
			parent = parent.Elem()
		}
		city := parent.FieldByName("City")
		if !city.IsValid() {
			return false
		}
		return catalog.HospitalInCity(fl.Field().String(), city.String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("booking: register %s validator: %v", tag, err))
	}
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("booking: validate: %w", err)
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// Validate checks a complete booking, including that the hospital belongs
// to the selected city.
func (d Details) Validate() error {
	return validateStruct(d)
}
