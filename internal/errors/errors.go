package errors

import (
	"fmt"
)

// Kind categorizes an error with a stable machine-readable code.
type Kind int

const (
	// KindUnknown is the catch-all for unexpected failures
	KindUnknown Kind = iota
	// KindValidation - malformed input (feature_id, doc_type, title length, ...)
	KindValidation
	// KindSecurity - input rejected by the security sanitization layer
	KindSecurity
	// KindInvalidPath - path escapes the workspace or contains traversal
	KindInvalidPath
	// KindRepositoryNotFound - repository path missing or not a git tree
	KindRepositoryNotFound
	// KindGitCommandFailed - git exited non-zero or timed out
	KindGitCommandFailed
	// KindFeatureNotFound - no commits match the feature identifier
	KindFeatureNotFound
	// KindFileNotFound - source or doc file missing
	KindFileNotFound
	// KindTemplateNotFound - no template across all lookup roots
	KindTemplateNotFound
	// KindConfiguration - invalid configuration
	KindConfiguration
	// KindAPITimeout - upstream API request timed out
	KindAPITimeout
	// KindAPIRateLimit - upstream API rate limit hit
	KindAPIRateLimit
	// KindAPIAuthFailed - upstream API rejected credentials
	KindAPIAuthFailed
	// KindAPIRequestFailed - any other upstream API failure
	KindAPIRequestFailed
)

// Error is a structured error with a kind, message and optional details.
// It replaces the original dynamic exception hierarchy with one tagged type
// propagated through ordinary error returns.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by kind so callers can use errors.Is with sentinel kinds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Code returns the stable machine-readable error code for the kind.
func (e *Error) Code() string {
	return codeString(e.Kind)
}

// Payload is the JSON wire form of an error. Tool calls always succeed at
// the transport level; failures travel as this payload.
type Payload struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
	Details   string `json:"details,omitempty"`
}

// ToPayload converts any error into a wire payload. Non-*Error values are
// reported as UNKNOWN_ERROR.
func ToPayload(err error) Payload {
	if e, ok := err.(*Error); ok {
		return Payload{
			Error:     kindName(e.Kind),
			Message:   e.Message,
			ErrorCode: e.Code(),
			Details:   e.Details,
		}
	}
	return Payload{
		Error:     "UnexpectedError",
		Message:   err.Error(),
		ErrorCode: codeString(KindUnknown),
	}
}

func kindName(k Kind) string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindSecurity:
		return "SecurityError"
	case KindInvalidPath:
		return "InvalidPathError"
	case KindRepositoryNotFound:
		return "RepositoryNotFoundError"
	case KindGitCommandFailed:
		return "GitCommandError"
	case KindFeatureNotFound:
		return "FeatureNotFoundError"
	case KindFileNotFound:
		return "FileNotFoundError"
	case KindTemplateNotFound:
		return "TemplateNotFoundError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindAPITimeout, KindAPIRateLimit, KindAPIAuthFailed, KindAPIRequestFailed:
		return "APIError"
	default:
		return "UnexpectedError"
	}
}

func codeString(k Kind) string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindSecurity:
		return "SECURITY_ERROR"
	case KindInvalidPath:
		return "INVALID_PATH"
	case KindRepositoryNotFound:
		return "REPOSITORY_NOT_FOUND"
	case KindGitCommandFailed:
		return "GIT_COMMAND_FAILED"
	case KindFeatureNotFound:
		return "FEATURE_NOT_FOUND"
	case KindFileNotFound:
		return "FILE_NOT_FOUND"
	case KindTemplateNotFound:
		return "TEMPLATE_NOT_FOUND"
	case KindConfiguration:
		return "CONFIGURATION_ERROR"
	case KindAPITimeout:
		return "API_TIMEOUT"
	case KindAPIRateLimit:
		return "API_RATE_LIMIT"
	case KindAPIAuthFailed:
		return "API_AUTHENTICATION_FAILED"
	case KindAPIRequestFailed:
		return "API_REQUEST_FAILED"
	default:
		return "UNKNOWN_ERROR"
	}
}

// New creates a new error with the given kind and message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new error with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches a human-readable detail string
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// Wrap wraps an existing error with a kind and message
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

// GetKind returns the kind of an error, KindUnknown for foreign errors.
func GetKind(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

// Convenience constructors for common kinds

// ValidationError creates a validation error
func ValidationError(message, details string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// SecurityError creates a security error
func SecurityError(message, details string) *Error {
	return &Error{Kind: KindSecurity, Message: message, Details: details}
}

// InvalidPathError creates an invalid-path error
func InvalidPathError(message, details string) *Error {
	return &Error{Kind: KindInvalidPath, Message: message, Details: details}
}

// GitCommandError creates a git-command-failed error
func GitCommandError(message, details string) *Error {
	return &Error{Kind: KindGitCommandFailed, Message: message, Details: details}
}

// RepositoryNotFoundError creates a repository-not-found error
func RepositoryNotFoundError(message, details string) *Error {
	return &Error{Kind: KindRepositoryNotFound, Message: message, Details: details}
}

// FeatureNotFoundError creates a feature-not-found error
func FeatureNotFoundError(message, details string) *Error {
	return &Error{Kind: KindFeatureNotFound, Message: message, Details: details}
}

// FileNotFoundError creates a file-not-found error
func FileNotFoundError(message, details string) *Error {
	return &Error{Kind: KindFileNotFound, Message: message, Details: details}
}

// TemplateNotFoundError creates a template-not-found error
func TemplateNotFoundError(message, details string) *Error {
	return &Error{Kind: KindTemplateNotFound, Message: message, Details: details}
}

// APIError creates an API error of the given kind
func APIError(kind Kind, message, details string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}
