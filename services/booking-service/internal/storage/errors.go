// Package storage implements the booking ports on PostgreSQL via pgx.
// Scheduling timestamps are stored as "timestamp without time zone" holding
// the tenant's wall clock; the tenant location is attached on read.
package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
)

const (
	codeExclusionViolation  = "23P01"
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

// IsConflict reports an exclusion constraint violation, i.e. an overlapping
// active appointment slipped past the explicit check.
func IsConflict(err error) bool {
	return hasCode(err, codeExclusionViolation)
}

func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// notFound maps a missing row, or an id that is not a valid uuid, to target.
func notFound(err, target error) error {
	if IsNotFound(err) || hasCode(err, codeInvalidText) {
		return target
	}
	return err
}

// invalidFilter maps a filter id that is not a valid uuid to invalid input.
func invalidFilter(err error) error {
	if hasCode(err, codeInvalidText) {
		return fmt.Errorf("%w: malformed id in filter", booking.ErrInvalidInput)
	}
	return err
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
