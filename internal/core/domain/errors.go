package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotAuthenticated indicates an operation needs a session and none exists.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrConnection indicates the remote API could not be reached.
	ErrConnection = errors.New("connection error")

	// ErrUnexpectedResponse indicates the remote API answered with a payload
	// that does not match its schema.
	ErrUnexpectedResponse = errors.New("unexpected response")

	// Workflow Errors.

	// ErrFilesNotReady indicates the primary or reference file is missing.
	ErrFilesNotReady = errors.New("both primary and reference files are required")

	// ErrInspectionRequired indicates the current files have not been inspected.
	ErrInspectionRequired = errors.New("files must be inspected before submission")

	// ErrInspectionInvalid indicates the last inspection rejected the files.
	ErrInspectionInvalid = errors.New("inspection reported the files as invalid")

	// ErrJobActive indicates a job is already being submitted or polled.
	ErrJobActive = errors.New("a job is already in progress")

	// ErrNoActiveJob indicates there is no job to poll or cancel.
	ErrNoActiveJob = errors.New("no active job")

	// ErrPollInFlight indicates a poll was requested while another is running.
	ErrPollInFlight = errors.New("a poll is already in flight")

	// ErrJobNotCompleted indicates a result was requested before completion.
	ErrJobNotCompleted = errors.New("job has not completed")
)

// AuthErrorKind classifies authentication failures.
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthAccessDenied       AuthErrorKind = "access_denied"
	AuthConnectionError    AuthErrorKind = "connection_error"
)

// AuthError is returned by login.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	msg := e.Message
	if msg == "" {
		switch e.Kind {
		case AuthInvalidCredentials:
			msg = "invalid username or password"
		case AuthAccessDenied:
			msg = "access denied"
		default:
			msg = "could not reach the authentication service"
		}
	}
	if e.Err != nil && e.Kind == AuthConnectionError {
		return fmt.Sprintf("auth: %s: %v", msg, e.Err)
	}
	return "auth: " + msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// FieldError is a message attached to one input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists field-level problems.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrInvalidInput) match validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// DetailCategory classifies a server detail message.
type DetailCategory string

const (
	DetailGeneric       DetailCategory = "generic"
	DetailMismatch      DetailCategory = "mismatch"
	DetailCorruptFormat DetailCategory = "corrupt_format"
)

// ClassifyDetail maps a server detail message to a user-actionable category.
func ClassifyDetail(detail string) DetailCategory {
	d := strings.ToLower(detail)
	switch {
	case strings.Contains(d, "mismatch"):
		return DetailMismatch
	case strings.Contains(d, "corrupt"),
		strings.Contains(d, "invalid format"),
		strings.Contains(d, "unsupported format"):
		return DetailCorruptFormat
	default:
		return DetailGeneric
	}
}

// APIError is a non-2xx response from the remote API.
type APIError struct {
	// StatusCode is the HTTP status.
	StatusCode int
	// Detail is the server-provided message; "Unknown error" if none.
	Detail string
	// Fields holds field-level messages when the server returned them.
	Fields []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
}

// Category classifies the detail message.
func (e *APIError) Category() DetailCategory {
	return ClassifyDetail(e.Detail)
}

// IsUnauthorized reports a 401 or 403 response.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// SubmitErrorKind classifies submission failures.
type SubmitErrorKind string

const (
	SubmitSlideCountMismatch       SubmitErrorKind = "slide_count_mismatch"
	SubmitUnsupportedOrCorruptFile SubmitErrorKind = "unsupported_or_corrupt_file"
	SubmitGeneric                  SubmitErrorKind = "generic"
	SubmitConnectionError          SubmitErrorKind = "connection_error"
)

// Hint returns the remediation hint shown for the kind.
func (k SubmitErrorKind) Hint() string {
	switch k {
	case SubmitSlideCountMismatch:
		return "Please ensure both files have the same number of slides before proceeding."
	case SubmitUnsupportedOrCorruptFile:
		return "Please check your files and try again with valid formats."
	case SubmitConnectionError:
		return "Please check the API URL and your network connection."
	default:
		return ""
	}
}

// SubmitError is returned when a job could not be started.
type SubmitError struct {
	Kind SubmitErrorKind
	// Detail is the server's message, verbatim.
	Detail string
	Err    error
}

func (e *SubmitError) Error() string {
	if e.Kind == SubmitConnectionError && e.Err != nil {
		return fmt.Sprintf("submit: %v", e.Err)
	}
	return "submit: " + e.Detail
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// NewSubmitError classifies err into a SubmitError.
func NewSubmitError(err error) *SubmitError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		kind := SubmitGeneric
		switch apiErr.Category() {
		case DetailMismatch:
			kind = SubmitSlideCountMismatch
		case DetailCorruptFormat:
			kind = SubmitUnsupportedOrCorruptFile
		}
		return &SubmitError{Kind: kind, Detail: apiErr.Detail, Err: err}
	}
	if errors.Is(err, ErrConnection) {
		return &SubmitError{Kind: SubmitConnectionError, Detail: "Error connecting to API", Err: err}
	}
	return &SubmitError{Kind: SubmitGeneric, Detail: err.Error(), Err: err}
}

// PollError is a transport-level failure during a status poll. It is never
// treated as a job failure.
type PollError struct {
	JobID string
	Err   error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll job %s: %v", e.JobID, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err carries a 401 or 403 API response.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsUnauthorized()
	}
	return false
}

// IsConnection reports whether err is a transport failure.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}
