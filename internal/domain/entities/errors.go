package entities

import (
	"errors"
)

// ErrorKind classifies a DomainError for transport mapping.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindUnauthenticated   ErrorKind = "unauthenticated"
	KindQuotaExceeded     ErrorKind = "quota_exceeded"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindNoDeadline        ErrorKind = "no_deadline"
	KindConflict          ErrorKind = "conflict"
	KindUnavailable       ErrorKind = "unavailable"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DomainError is the error type every service returns for expected failures.
type DomainError struct {
	Kind                 ErrorKind
	Message              string
	RequiresRegistration bool
	Fields               []FieldError
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches another DomainError of the same kind. A target without a
// message matches on kind alone, so errors.Is(err, &DomainError{Kind: KindNotFound})
// holds for every not-found error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// Common errors
var (
	ErrUnauthenticated     = &DomainError{Kind: KindUnauthenticated, Message: "Not authorized to access this route"}
	ErrInvalidCredentials  = &DomainError{Kind: KindUnauthenticated, Message: "Invalid credentials"}
	ErrAccountSuspended    = &DomainError{Kind: KindForbidden, Message: "Your account has been suspended"}
	ErrAccountInactive     = &DomainError{Kind: KindForbidden, Message: "Your account is not active"}
	ErrForbidden           = &DomainError{Kind: KindForbidden, Message: "Not authorized to perform this action"}
	ErrAdminRequired       = &DomainError{Kind: KindForbidden, Message: "Admin access required"}
	ErrGuestsDisabled      = &DomainError{Kind: KindForbidden, Message: "Guest access is disabled"}
	ErrUploadsDisabled     = &DomainError{Kind: KindForbidden, Message: "File uploads are disabled"}
	ErrMaintenance         = &DomainError{Kind: KindUnavailable, Message: "Service is under maintenance"}
	ErrRealtimeDisabled    = &DomainError{Kind: KindUnavailable, Message: "Real-time sync is disabled"}
	ErrUserNotFound        = &DomainError{Kind: KindNotFound, Message: "User not found"}
	ErrTaskNotFound        = &DomainError{Kind: KindNotFound, Message: "Task not found"}
	ErrSubTaskNotFound     = &DomainError{Kind: KindNotFound, Message: "Sub-task not found"}
	ErrCommentNotFound     = &DomainError{Kind: KindNotFound, Message: "Comment not found"}
	ErrFileNotFound        = &DomainError{Kind: KindNotFound, Message: "File not found"}
	ErrFileBlobMissing     = &DomainError{Kind: KindNotFound, Message: "File not found on server"}
	ErrShareLinkNotFound   = &DomainError{Kind: KindNotFound, Message: "Share link not found"}
	ErrShareLinkInvalid    = &DomainError{Kind: KindForbidden, Message: "Share link has expired or reached maximum access limit"}
	ErrInvalidStatus       = &DomainError{Kind: KindInvalidTransition, Message: "Invalid status"}
	ErrNotOverdue          = &DomainError{Kind: KindInvalidTransition, Message: "Task is not past its deadline"}
	ErrProgressDerived     = &DomainError{Kind: KindInvalidTransition, Message: "Progress is derived from sub-tasks"}
	ErrNoOpenSubTasks      = &DomainError{Kind: KindInvalidTransition, Message: "Task has no incomplete sub-tasks"}
	ErrNoDeadline          = &DomainError{Kind: KindNoDeadline, Message: "Task has no deadline"}
	ErrGuestTaskQuota      = &DomainError{Kind: KindQuotaExceeded, Message: "Guest users can only create a limited number of tasks. Please register to create more tasks.", RequiresRegistration: true}
	ErrGuestCommentQuota   = &DomainError{Kind: KindQuotaExceeded, Message: "Guest users can only post a limited number of comments. Please register to post more comments.", RequiresRegistration: true}
	ErrEmailTaken          = &DomainError{Kind: KindConflict, Message: "User already exists with this email"}
	ErrNotGuest            = &DomainError{Kind: KindValidation, Message: "Only guest users can be converted"}
	ErrSelfModification    = &DomainError{Kind: KindValidation, Message: "Cannot change your own account"}
	ErrFileTooLarge        = &DomainError{Kind: KindValidation, Message: "File size exceeds the maximum limit"}
	ErrFileTypeNotAllowed  = &DomainError{Kind: KindValidation, Message: "File type is not allowed"}
	ErrCommentTaskMismatch = &DomainError{Kind: KindNotFound, Message: "Comment not found"}
)

// NewValidationError builds a validation failure with optional field details.
func NewValidationError(message string, fields ...FieldError) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message, Fields: fields}
}

// KindOf returns the kind of a wrapped DomainError, or "" for anything else.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// AsDomainError unwraps err into a DomainError if it carries one.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
