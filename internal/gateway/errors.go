package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/healthfirst/portal/pkg/types"
)

// errorBody is the subset of a backend error response we read. detail is
// either a string or a list of field errors.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type fieldError struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// serverMessage extracts the backend's own explanation, if any
func serverMessage(body []byte) (string, []fieldError) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return "", nil
	}

	if len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil && s != "" {
			return s, nil
		}
		var fields []fieldError
		if err := json.Unmarshal(eb.Detail, &fields); err == nil && len(fields) > 0 {
			msgs := make([]string, 0, len(fields))
			for _, f := range fields {
				if f.Msg != "" {
					msgs = append(msgs, f.Msg)
				}
			}
			return strings.Join(msgs, "; "), fields
		}
	}
	return eb.Message, nil
}

// defaultMessage is the user-facing text for a status when the backend
// gave none
func defaultMessage(operation string, status int) string {
	registering := operation == OpProviderRegister || operation == OpPatientRegister

	switch status {
	case http.StatusBadRequest:
		if registering {
			return "Invalid registration data. Please check your information and try again."
		}
		return "Invalid login data. Please check your information and try again."
	case http.StatusUnauthorized, http.StatusForbidden:
		if operation == OpPatientLogin {
			return "We couldn't find an account with those details. Please check your information and try again, or contact support if you need help."
		}
		return "Invalid credentials. Please check your email/phone and password."
	case http.StatusNotFound:
		if operation == OpFetchAvailability {
			return "Provider availability not found."
		}
		return "Account not found. Please check your credentials or register first."
	case http.StatusConflict:
		return "An account with this email already exists. Please use a different email or try logging in."
	case http.StatusUnprocessableEntity:
		return "Please check your input data. Some fields may contain invalid information."
	case http.StatusTooManyRequests:
		return "Too many attempts. Please wait a moment and try again."
	}
	if status >= 500 {
		return "Server error. Please try again later."
	}
	if registering {
		return "Registration failed. Please check your connection and try again."
	}
	return "Something went wrong. Please try again."
}

// classifyHTTPError maps a non-2xx response onto the portal error taxonomy
func classifyHTTPError(operation string, status int, body []byte) error {
	msg, fields := serverMessage(body)
	if msg == "" {
		msg = defaultMessage(operation, status)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusLocked:
		e := types.NewAuthError(msg)
		e.Status = status
		return e
	case status == http.StatusNotFound:
		return types.NewNotFoundError(types.ErrCodeNotFound, msg)
	case status == http.StatusConflict:
		return types.NewConflictError(types.ErrCodeConflict, msg, nil)
	case status == http.StatusTooManyRequests:
		return types.NewRateLimitError(msg)
	case status >= 500:
		return types.NewServerError(status, msg, nil)
	}

	var details map[string]interface{}
	if len(fields) > 0 {
		details = map[string]interface{}{"fields": fieldNames(fields)}
	}
	e := types.NewValidationError(types.ErrCodeValidationFailed, msg, details)
	e.Status = status
	return e
}

func fieldNames(fields []fieldError) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f.Loc) == 0 {
			continue
		}
		if name, ok := f.Loc[len(f.Loc)-1].(string); ok {
			out = append(out, name)
		}
	}
	return out
}
