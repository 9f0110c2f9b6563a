// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values let the service layer distinguish
// failure scenarios without inspecting driver errors.  ErrNotFound covers
// any missing row, ErrOverlap signals that the availability re-check inside
// the creation transaction found a conflicting reservation, and
// ErrDuplicateReference reports a payment reference code collision so the
// caller can retry with a fresh code.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist or is no
// longer active.
var ErrNotFound = errors.New("not found")

// ErrOverlap is returned by CreateAggregate when an active reservation on
// the same place overlaps the requested window.  Nothing is written.
var ErrOverlap = errors.New("reservation window overlaps an active reservation")

// ErrDuplicateReference is returned by CreateAggregate when the payment
// reference code is already taken.  Nothing is written.
var ErrDuplicateReference = errors.New("duplicate payment reference code")

// mysqlDuplicateEntry is the server error number for a UNIQUE violation.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL duplicate entry error on
// the named unique key.  An empty key matches any duplicate.
func isDuplicateKey(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}
