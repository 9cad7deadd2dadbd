package forms

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/healthfirst/portal/internal/credential"
	"github.com/healthfirst/portal/pkg/types"
)

// MinimumAge is the youngest a patient may be to register
const MinimumAge = 13

// Validator evaluates the struct-tag rule tables of the form records
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewValidator registers the portal rules. now is used by the date of
// birth rules and defaults to time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{validate: validator.New(), now: now}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"identifier": func(fl validator.FieldLevel) bool {
			return credential.Classify(fl.Field().String()).Kind != credential.KindInvalid
		},
		"phone": func(fl validator.FieldLevel) bool {
			return credential.IsPhone(fl.Field().String())
		},
		"zip": func(fl validator.FieldLevel) bool {
			return credential.ValidZIP(fl.Field().String())
		},
		"strongpassword": func(fl validator.FieldLevel) bool {
			return credential.StrongPassword(fl.Field().String())
		},
		"notfuture": func(fl validator.FieldLevel) bool {
			dob, err := time.Parse(types.DateLayout, fl.Field().String())
			return err == nil && !dob.After(v.today())
		},
		"adult13": func(fl validator.FieldLevel) bool {
			dob, err := time.Parse(types.DateLayout, fl.Field().String())
			return err == nil && AgeOn(dob, v.today()) >= MinimumAge
		},
	}
	for tag, fn := range rules {
		// Only fails on an empty tag or nil func
		_ = v.validate.RegisterValidation(tag, fn)
	}
	return v
}

func (v *Validator) today() time.Time {
	y, m, d := v.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AgeOn returns the age in whole years on the given day
func AgeOn(dob, on time.Time) int {
	age := on.Year() - dob.Year()
	if on.Month() < dob.Month() || (on.Month() == dob.Month() && on.Day() < dob.Day()) {
		age--
	}
	return age
}

// Check validates a form record and returns a message per failing field,
// keyed by the JSON path of the field (for example "clinic_address.zip").
// The map is empty when the record is valid.
func (v *Validator) Check(record interface{}) map[string]string {
	out := make(map[string]string)

	err := v.validate.Struct(record)
	if err == nil {
		return out
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out[""] = err.Error()
		return out
	}

	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(fe)
	}
	return out
}

// fieldPath drops the leading struct name from a validator namespace
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

var requiredMessages = map[string]string{
	"identifier":             "Email or phone number is required",
	"phone_number":           "Phone number is required",
	"license_number":         "Medical license number is required",
	"specialization":         "Please select your specialization",
	"street":                 "Street address is required",
	"street_address":         "Street address is required",
	"zip":                    "ZIP code is required",
	"zip_code":               "ZIP code is required",
	"confirm_password":       "Please confirm your password",
	"gender":                 "Please select your gender",
	"emergency_relationship": "Please specify your relationship to emergency contact",
	"emergency_phone":        "Emergency contact phone is required",
	"agree_to_terms":         "You must agree to the terms and conditions",
	"agree_to_privacy":       "You must agree to the privacy policy",
}

func message(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		if msg, ok := requiredMessages[field]; ok {
			return msg
		}
		return label(field) + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label(field), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be less than %s characters", label(field), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", label(field))
	case "email":
		return "Please enter a valid email address"
	case "identifier":
		return "Please enter a valid email or phone number"
	case "phone":
		return "Please enter a valid phone number"
	case "zip":
		return "Please enter a valid ZIP code"
	case "strongpassword":
		return "Password must contain uppercase, lowercase, number, and special character"
	case "eqfield":
		return "Passwords must match"
	case "nefield":
		return "Emergency contact phone must be different from your phone"
	case "notfuture":
		return "Date of birth cannot be in the future"
	case "adult13":
		return fmt.Sprintf("You must be at least %d years old to register", MinimumAge)
	}
	return fmt.Sprintf("%s is invalid", label(field))
}

// label turns a JSON field name into a sentence-case label
func label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return "Field"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
