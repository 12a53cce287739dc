// Package repository defines error values shared across repositories.  These
// sentinels let handlers distinguish failure scenarios without inspecting
// driver errors: ErrNotFound maps to 404, ErrConflict to 409 and
// ErrEmailExists to the registration conflict response.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when the requested row does not exist (or is not
// visible to the caller when the query is owner-scoped).
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update violates a uniqueness
// rule, whether caught by a pre-check or by the storage engine itself.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an already-taken email.
var ErrEmailExists = errors.New("email already exists")

// TechniqueNotFoundError reports that no technique matches a task
// description when moving it to the history.  The name travels with the
// error so the response can tell the user which technique to create first.
type TechniqueNotFoundError struct {
	Name string
}

func (e *TechniqueNotFoundError) Error() string {
	return fmt.Sprintf("technique %q does not exist", e.Name)
}

// isDuplicate reports whether err is a MySQL duplicate-key error (1062).
// A race between the uniqueness pre-check and the insert still surfaces as
// the same Conflict response this way.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// dateStr formats a nullable DATE column as YYYY-MM-DD.
func dateStr(nt sql.NullTime) *string {
	if !nt.Valid {
		return nil
	}
	s := nt.Time.Format("2006-01-02")
	return &s
}

// dateTimeStr formats a nullable DATETIME column as YYYY-MM-DD HH:MM:SS.
func dateTimeStr(nt sql.NullTime) *string {
	if !nt.Valid {
		return nil
	}
	s := nt.Time.Format("2006-01-02 15:04:05")
	return &s
}

// Today returns the current UTC date in the format DATE columns expect.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// strPtr converts a NullString to *string.
func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// u64Ptr converts a NullInt64 to *uint64.
func u64Ptr(ni sql.NullInt64) *uint64 {
	if !ni.Valid {
		return nil
	}
	v := uint64(ni.Int64)
	return &v
}
