package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUpload           = errors.New("media upload failed")
	ErrUnavailable      = errors.New("service unavailable")
)

var (
	ErrRemarkExists           = fmt.Errorf("%w: issue already has a remark", ErrConflict)
	ErrDefaultCredentialReuse = fmt.Errorf("%w: new password must differ from the default password", ErrConflict)
	ErrLastAdmin              = fmt.Errorf("%w: cannot delete the last admin", ErrConflict)
	ErrInvalidCredentials     = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
)

// ValidationError carries every rule the input violated.
type ValidationError struct {
	Violations []string
}

func newValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// StaffDeletionBlockedError is returned when the staff member still holds unfinished issues.
type StaffDeletionBlockedError struct {
	Staff      string
	Incomplete int64
}

func (e *StaffDeletionBlockedError) Error() string {
	return fmt.Sprintf("Cannot delete staff member '%s' because they have %d assigned report(s) that are not completed. "+
		"All assigned reports must be marked as 'Completed' before deletion.", e.Staff, e.Incomplete)
}

func (e *StaffDeletionBlockedError) Is(target error) bool {
	return target == ErrConflict
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
