package sqlutil

import (
	"database/sql"
	"time"
)

// Helper functions for converting between Go types and sql.Null* types

// ToNullTime converts a Go time pointer to sql.NullTime
func ToNullTime(val *time.Time) sql.NullTime {
	if val == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *val, Valid: true}
}

// ToNullTimeValue converts a Go time to sql.NullTime; the zero time is NULL
func ToNullTimeValue(val time.Time) sql.NullTime {
	if val.IsZero() {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: val, Valid: true}
}

// FromNullTime converts sql.NullTime to a Go time pointer in UTC
func FromNullTime(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	t := val.Time.UTC()
	return &t
}

// FromNullTimeValue converts sql.NullTime to a Go time in UTC, zero when NULL
func FromNullTimeValue(val sql.NullTime) time.Time {
	if !val.Valid {
		return time.Time{}
	}
	return val.Time.UTC()
}
