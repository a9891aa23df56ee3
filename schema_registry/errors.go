package schema_registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSubjectNotFound is returned when the registry does not know the subject (40401).
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrVersionNotFound is returned when the subject has no such version (40402).
	ErrVersionNotFound = errors.New("version not found")

	// ErrSchemaNotFound is returned when the registry does not know the schema (40403).
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrSerialization wraps every failure to encode or decode a record.
	ErrSerialization = errors.New("serialization failed")
)

// Registry error codes returned in the error_code field of a failed response.
const (
	CodeSubjectNotFound = 40401
	CodeVersionNotFound = 40402
	CodeSchemaNotFound  = 40403
)

// RegistryError is a non-200 response from the registry.
type RegistryError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"error_code"`
	Message    string `json:"message"`
}

func newRegistryError(status int, body []byte) *RegistryError {
	e := &RegistryError{StatusCode: status}
	if err := json.Unmarshal(body, e); err != nil || e.Message == "" {
		e.Message = string(body)
	}
	return e
}

func (e *RegistryError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("schema registry returned status %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("schema registry returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps registry error codes onto the package sentinels.
func (e *RegistryError) Unwrap() error {
	switch e.Code {
	case CodeSubjectNotFound:
		return ErrSubjectNotFound
	case CodeVersionNotFound:
		return ErrVersionNotFound
	case CodeSchemaNotFound:
		return ErrSchemaNotFound
	}
	if e.StatusCode == http.StatusNotFound {
		return ErrSchemaNotFound
	}
	return nil
}
