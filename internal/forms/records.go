package forms

import (
	"strings"

	"github.com/healthfirst/portal/pkg/types"
)

// ProviderLoginForm is the provider sign-in form
type ProviderLoginForm struct {
	Identifier string `json:"identifier" validate:"required,identifier"`
	Password   string `json:"password" validate:"required,min=6"`
	RememberMe bool   `json:"remember_me"`
}

// Request builds the login request body
func (f ProviderLoginForm) Request() types.ProviderLoginRequest {
	return types.ProviderLoginRequest{
		Identifier: strings.TrimSpace(f.Identifier),
		Password:   f.Password,
		RememberMe: f.RememberMe,
	}
}

// PatientLoginForm is the patient sign-in form
type PatientLoginForm struct {
	Identifier string `json:"identifier" validate:"required,identifier"`
	Password   string `json:"password" validate:"required,min=6"`
	RememberMe bool   `json:"remember_me"`
}

// Request builds the login request body. Device info is left for the
// gateway to fill.
func (f PatientLoginForm) Request() types.PatientLoginRequest {
	return types.PatientLoginRequest{
		Identifier: strings.TrimSpace(f.Identifier),
		Password:   f.Password,
		RememberMe: f.RememberMe,
	}
}

// ProviderRegistrationForm is the provider sign-up form
type ProviderRegistrationForm struct {
	FirstName         string              `json:"first_name" validate:"required,min=2"`
	LastName          string              `json:"last_name" validate:"required,min=2"`
	Email             string              `json:"email" validate:"required,email"`
	PhoneNumber       string              `json:"phone_number" validate:"required,phone"`
	Specialization    string              `json:"specialization" validate:"required"`
	LicenseNumber     string              `json:"license_number" validate:"required,min=5"`
	YearsOfExperience int                 `json:"years_of_experience" validate:"gte=0,lte=60"`
	ClinicAddress     types.ClinicAddress `json:"clinic_address"`
	Password          string              `json:"password" validate:"required,min=8,strongpassword"`
	ConfirmPassword   string              `json:"confirm_password" validate:"required,eqfield=Password"`
	AgreeToTerms      bool                `json:"agree_to_terms" validate:"required"`
}

// Request builds the registration request body
func (f ProviderRegistrationForm) Request() types.ProviderRegistrationRequest {
	return types.ProviderRegistrationRequest{
		FirstName:         strings.TrimSpace(f.FirstName),
		LastName:          strings.TrimSpace(f.LastName),
		Email:             strings.TrimSpace(f.Email),
		PhoneNumber:       strings.TrimSpace(f.PhoneNumber),
		Password:          f.Password,
		ConfirmPassword:   f.ConfirmPassword,
		Specialization:    f.Specialization,
		LicenseNumber:     strings.TrimSpace(f.LicenseNumber),
		YearsOfExperience: f.YearsOfExperience,
		ClinicAddress:     f.ClinicAddress,
	}
}

// PatientRegistrationForm is the patient sign-up form
type PatientRegistrationForm struct {
	FirstName   string `json:"first_name" validate:"required,min=2,max=50"`
	LastName    string `json:"last_name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	DateOfBirth string `json:"date_of_birth" validate:"required,notfuture,adult13"`
	Gender      string `json:"gender" validate:"required"`

	StreetAddress string `json:"street_address" validate:"required"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state" validate:"required"`
	ZipCode       string `json:"zip_code" validate:"required,zip"`

	EmergencyContactName  string `json:"emergency_contact_name" validate:"required"`
	EmergencyRelationship string `json:"emergency_relationship" validate:"required"`
	EmergencyPhone        string `json:"emergency_phone" validate:"required,phone,nefield=PhoneNumber"`

	Password        string `json:"password,omitempty" validate:"required,min=8,strongpassword"`
	ConfirmPassword string `json:"confirm_password,omitempty" validate:"required,eqfield=Password"`

	AgreeToTerms   bool `json:"agree_to_terms" validate:"required"`
	AgreeToPrivacy bool `json:"agree_to_privacy" validate:"required"`
}

// Request builds the registration request body
func (f PatientRegistrationForm) Request() types.PatientRegistrationRequest {
	return types.PatientRegistrationRequest{
		FirstName:       strings.TrimSpace(f.FirstName),
		LastName:        strings.TrimSpace(f.LastName),
		Email:           strings.TrimSpace(f.Email),
		PhoneNumber:     strings.TrimSpace(f.PhoneNumber),
		Password:        f.Password,
		ConfirmPassword: f.ConfirmPassword,
		DateOfBirth:     f.DateOfBirth,
		Gender:          f.Gender,
		Address: types.ClinicAddress{
			Street: f.StreetAddress,
			City:   f.City,
			State:  f.State,
			Zip:    f.ZipCode,
		},
		EmergencyContact: types.EmergencyContact{
			Name:         f.EmergencyContactName,
			Relationship: f.EmergencyRelationship,
			Phone:        f.EmergencyPhone,
		},
	}
}

// ProviderRegistrationFromRequest rebuilds the form from a request body so
// the backend can apply the same rules. Terms acceptance is implied by the
// request having been sent.
func ProviderRegistrationFromRequest(req types.ProviderRegistrationRequest) ProviderRegistrationForm {
	return ProviderRegistrationForm{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		PhoneNumber:       req.PhoneNumber,
		Specialization:    req.Specialization,
		LicenseNumber:     req.LicenseNumber,
		YearsOfExperience: req.YearsOfExperience,
		ClinicAddress:     req.ClinicAddress,
		Password:          req.Password,
		ConfirmPassword:   req.ConfirmPassword,
		AgreeToTerms:      true,
	}
}

// PatientRegistrationFromRequest is the patient counterpart of
// ProviderRegistrationFromRequest
func PatientRegistrationFromRequest(req types.PatientRegistrationRequest) PatientRegistrationForm {
	return PatientRegistrationForm{
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Email:                 req.Email,
		PhoneNumber:           req.PhoneNumber,
		DateOfBirth:           req.DateOfBirth,
		Gender:                req.Gender,
		StreetAddress:         req.Address.Street,
		City:                  req.Address.City,
		State:                 req.Address.State,
		ZipCode:               req.Address.Zip,
		EmergencyContactName:  req.EmergencyContact.Name,
		EmergencyRelationship: req.EmergencyContact.Relationship,
		EmergencyPhone:        req.EmergencyContact.Phone,
		Password:              req.Password,
		ConfirmPassword:       req.ConfirmPassword,
		AgreeToTerms:          true,
		AgreeToPrivacy:        true,
	}
}
