// Package repository contains the MySQL data access layer. Repositories
// return the sentinel errors below so handlers can pick a status code
// without looking at driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// row owned by another user. Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when registering an e-mail that is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrSlugExists is returned when creating an event whose slug is taken.
var ErrSlugExists = errors.New("slug already exists")

// ErrAlreadyFollowing is returned when following the same target twice.
var ErrAlreadyFollowing = errors.New("already following")

// ErrUnknownReference is returned when a write points at a venue,
// performer or user that does not exist.
var ErrUnknownReference = errors.New("unknown reference")

// mapWriteErr converts constraint violations into sentinels. dup is
// returned for unique key violations; nil keeps the driver error.
func mapWriteErr(err, dup error) error {
	if dup != nil && isDuplicate(err) {
		return dup
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1452 {
		return ErrUnknownReference
	}
	return err
}

// isDuplicate reports a unique key violation (MySQL error 1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
