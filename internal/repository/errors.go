// Package repository contains the data access layer. Every query or
// mutation that touches a user-owned row carries the owning user id in its
// WHERE clause, so a row belonging to someone else behaves exactly like a
// row that does not exist. Mutations report zero affected rows through the
// entity's not-found sentinel instead of checking existence first; the
// check and the write are one statement, so there is no window between
// them.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Not-found sentinels, one per entity, covering both "no such row" and
// "owned by another user".
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrCallNotFound       = errors.New("call not found")
	ErrTagNotFound        = errors.New("tag not found")
	ErrAgentNotFound      = errors.New("agent config not found")
	ErrAssignmentNotFound = errors.New("tag assignment not found")
)

// Unique-constraint sentinels. Handlers translate these to 409.
var (
	ErrEmailExists = errors.New("email already exists")
	ErrTagExists   = errors.New("tag name already exists")
	ErrTagAssigned = errors.New("tag already assigned to call")
)

// isDuplicateKey reports whether err is a MySQL duplicate-entry violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
