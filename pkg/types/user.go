package types

import "time"

// UserRole represents the two portal audiences
type UserRole string

const (
	RoleProvider UserRole = "provider"
	RolePatient  UserRole = "patient"
)

// Storage keys shared with the rest of the app
const (
	KeyProviderToken = "provider_token"
	KeyProviderUser  = "provider_user"
	KeyPatientToken  = "patient_token"
	KeyPatientUser   = "patient_user"

	KeyPatientRegistrationDraft = "patient_registration_draft"
)

// TokenKey returns the storage key holding the access token for a role
func (r UserRole) TokenKey() string {
	if r == RolePatient {
		return KeyPatientToken
	}
	return KeyProviderToken
}

// UserKey returns the storage key holding the JSON profile for a role
func (r UserRole) UserKey() string {
	if r == RolePatient {
		return KeyPatientUser
	}
	return KeyProviderUser
}

// ClinicAddress represents a provider practice address
type ClinicAddress struct {
	Street string `json:"street" validate:"required"`
	City   string `json:"city" validate:"required"`
	State  string `json:"state" validate:"required"`
	Zip    string `json:"zip" validate:"required,zip"`
}

// DeviceInfo describes the client device on patient login
type DeviceInfo struct {
	AppVersion string `json:"app_version"`
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
}

// ProviderLoginRequest is the body of POST /api/v1/provider/login
type ProviderLoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// PatientLoginRequest is the body of POST /api/v1/patient/login
type PatientLoginRequest struct {
	Identifier string      `json:"identifier"`
	Password   string      `json:"password"`
	RememberMe bool        `json:"remember_me"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// ProviderUser is the provider profile returned on login
type ProviderUser struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"license_number"`
}

// PatientUser is the patient profile returned on login
type PatientUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// ProviderLoginResponse is the provider login payload
type ProviderLoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        ProviderUser `json:"user"`
}

// PatientLoginResponse is the patient login payload
type PatientLoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        PatientUser `json:"user"`
}

// ProviderRegistrationRequest is the body of POST /api/v1/provider/register
type ProviderRegistrationRequest struct {
	FirstName         string        `json:"first_name"`
	LastName          string        `json:"last_name"`
	Email             string        `json:"email"`
	PhoneNumber       string        `json:"phone_number"`
	Password          string        `json:"password"`
	ConfirmPassword   string        `json:"confirm_password"`
	Specialization    string        `json:"specialization"`
	LicenseNumber     string        `json:"license_number"`
	YearsOfExperience int           `json:"years_of_experience"`
	ClinicAddress     ClinicAddress `json:"clinic_address"`
}

// ProviderRegistrationResponse is the created provider profile
type ProviderRegistrationResponse struct {
	ID                string        `json:"id"`
	Email             string        `json:"email"`
	FirstName         string        `json:"first_name"`
	LastName          string        `json:"last_name"`
	PhoneNumber       string        `json:"phone_number,omitempty"`
	Specialization    string        `json:"specialization"`
	LicenseNumber     string        `json:"license_number"`
	YearsOfExperience int           `json:"years_of_experience"`
	ClinicAddress     ClinicAddress `json:"clinic_address"`
	CreatedAt         time.Time     `json:"created_at"`
}

// EmergencyContact is a patient's emergency contact
type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// PatientRegistrationRequest is the body of POST /api/v1/patient/register
type PatientRegistrationRequest struct {
	FirstName        string           `json:"first_name"`
	LastName         string           `json:"last_name"`
	Email            string           `json:"email"`
	PhoneNumber      string           `json:"phone_number"`
	Password         string           `json:"password"`
	ConfirmPassword  string           `json:"confirm_password"`
	DateOfBirth      string           `json:"date_of_birth"`
	Gender           string           `json:"gender"`
	Address          ClinicAddress    `json:"address"`
	EmergencyContact EmergencyContact `json:"emergency_contact"`
}

// PatientRegistrationResponse is the created patient profile
type PatientRegistrationResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	DateOfBirth string    `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
}

// Account is a stored portal account (either role)
type Account struct {
	ID                string         `json:"id" db:"id"`
	Role              UserRole       `json:"role" db:"role"`
	Email             string         `json:"email" db:"email"`
	PhoneNumber       string         `json:"phone_number" db:"phone_number"`
	PasswordHash      string         `json:"-" db:"password_hash"`
	FirstName         string         `json:"first_name" db:"first_name"`
	LastName          string         `json:"last_name" db:"last_name"`
	Specialization    string         `json:"specialization,omitempty" db:"specialization"`
	LicenseNumber     string         `json:"license_number,omitempty" db:"license_number"`
	YearsOfExperience int            `json:"years_of_experience,omitempty" db:"years_of_experience"`
	DateOfBirth       string         `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Profile           AccountProfile `json:"profile" db:"profile"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
}

// AccountProfile holds the nested registration details kept as one JSON
// document
type AccountProfile struct {
	Address          ClinicAddress     `json:"address"`
	Gender           string            `json:"gender,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty"`
}

// UserClaims represents access token claims
type UserClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}

// AuthToken is an issued access token
type AuthToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
}
