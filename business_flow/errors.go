// Package businessflow contains the core business logic and use cases for the voting workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Submission validation errors
	ErrDisplayNameRequired = errors.New("display name is required")
	ErrGuessTextRequired   = errors.New("guess text is required")
	ErrSelectionsRequired  = errors.New("at least one selection is required")
	ErrInvalidFingerprint  = errors.New("fingerprint payload is malformed")

	// Voting errors
	ErrNoActiveCycle     = errors.New("no voting cycle is currently accepting votes")
	ErrTooManySelections = errors.New("too many selections")
	ErrInvalidSelection  = errors.New("one or more selections are not votable")
	ErrDuplicateDevice   = errors.New("another vote with the same device fingerprint exists")
	ErrVoteNotFound      = errors.New("vote not found")

	// Contender errors
	ErrContenderNotFound      = errors.New("contender not found")
	ErrNicknameRequired       = errors.New("nickname is required")
	ErrImagePublicIDRequired  = errors.New("image public ID is required")
	ErrInvalidContenderStatus = errors.New("invalid contender status")

	// Guess errors
	ErrGuessNotFound = errors.New("guess not found")

	// Cycle errors
	ErrCycleNotFound       = errors.New("cycle not found")
	ErrCycleDatesRequired  = errors.New("start and end dates are required")
	ErrCycleEndBeforeStart = errors.New("end date must be after start date")
	ErrCycleOverlap        = errors.New("cycle overlaps an open cycle")
	ErrCycleAlreadyClosed  = errors.New("cycle is already closed")

	// Admin errors
	ErrIncorrectAdminPassword = errors.New("incorrect admin password")

	// Settings errors
	ErrSettingsFieldRequired = errors.New("at least one setting must be provided")
)

// TooManySelectionsError carries the cycle's selection cap so callers can
// surface the limit in the rejection message.
type TooManySelectionsError struct {
	Limit int
}

func (e *TooManySelectionsError) Error() string {
	return fmt.Sprintf("you can select at most %d contenders", e.Limit)
}

func (e *TooManySelectionsError) Unwrap() error {
	return ErrTooManySelections
}

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsDisplayNameRequired(err error) bool {
	return errors.Is(err, ErrDisplayNameRequired)
}

func IsGuessTextRequired(err error) bool {
	return errors.Is(err, ErrGuessTextRequired)
}

func IsSelectionsRequired(err error) bool {
	return errors.Is(err, ErrSelectionsRequired)
}

func IsInvalidFingerprint(err error) bool {
	return errors.Is(err, ErrInvalidFingerprint)
}

func IsNoActiveCycle(err error) bool {
	return errors.Is(err, ErrNoActiveCycle)
}

func IsTooManySelections(err error) bool {
	return errors.Is(err, ErrTooManySelections)
}

func IsInvalidSelection(err error) bool {
	return errors.Is(err, ErrInvalidSelection)
}

func IsDuplicateDevice(err error) bool {
	return errors.Is(err, ErrDuplicateDevice)
}

func IsContenderNotFound(err error) bool {
	return errors.Is(err, ErrContenderNotFound)
}

func IsGuessNotFound(err error) bool {
	return errors.Is(err, ErrGuessNotFound)
}

func IsCycleNotFound(err error) bool {
	return errors.Is(err, ErrCycleNotFound)
}

func IsCycleOverlap(err error) bool {
	return errors.Is(err, ErrCycleOverlap)
}

func IsCycleAlreadyClosed(err error) bool {
	return errors.Is(err, ErrCycleAlreadyClosed)
}

func IsIncorrectAdminPassword(err error) bool {
	return errors.Is(err, ErrIncorrectAdminPassword)
}

func IsValidationError(err error) bool {
	return IsDisplayNameRequired(err) ||
		IsGuessTextRequired(err) ||
		IsSelectionsRequired(err) ||
		IsInvalidFingerprint(err) ||
		errors.Is(err, ErrNicknameRequired) ||
		errors.Is(err, ErrImagePublicIDRequired) ||
		errors.Is(err, ErrInvalidContenderStatus) ||
		errors.Is(err, ErrCycleDatesRequired) ||
		errors.Is(err, ErrCycleEndBeforeStart) ||
		errors.Is(err, ErrSettingsFieldRequired)
}
