// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values let handlers tell a missing row
// apart from a database failure without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.  It is a normal
// outcome that handlers translate into an HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user with the same email is already
// registered.
var ErrEmailExists = errors.New("email already registered")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
