// Package repository contains data access logic separated from HTTP
// handlers and services. Repositories speak plain database/sql and return
// the sentinel errors below; services translate them into API errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrStoreNotFound = errors.New("store not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrTagNotFound   = errors.New("tag not found")
	ErrLinkNotFound  = errors.New("item is not linked to tag")
)

// ErrDuplicate is returned when an insert or update violates a uniqueness
// constraint (username, store name, tag name within a store, item-tag pair).
var ErrDuplicate = errors.New("duplicate entry")

// ErrConflict is returned when a delete cannot proceed because dependent
// records still exist, such as deleting a tag that is linked to items.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isUniqueViolation reports whether err is a unique-key violation from
// either supported driver.
func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
