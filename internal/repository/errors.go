// Package repository holds the MySQL data access for the API. Handlers map
// the sentinel errors below to HTTP statuses.
package repository

import (
	"database/sql"
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller may see a resource but not
// perform the operation on it (HTTP 403).
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when the operation clashes with existing state,
// such as accepting an invitation twice (HTTP 409).
var ErrConflict = errors.New("conflict")

var (
	ErrTourNotFound       = errors.New("tour not found")
	ErrShowNotFound       = errors.New("show not found")
	ErrGearNotFound       = errors.New("gear item not found")
	ErrInputListNotFound  = errors.New("input list not found")
	ErrChannelNotFound    = errors.New("channel not found")
	ErrCrewNotFound       = errors.New("crew not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation expired")
)

// isDuplicate reports a MySQL duplicate key error (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// nullID stores an empty optional id as NULL.
func nullID(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// notFound maps sql.ErrNoRows to the given sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// affected returns sentinel when an exec touched no rows.
func affected(res sql.Result, err, sentinel error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel
	}
	return nil
}
