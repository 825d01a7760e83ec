package sqlutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNullTimeRoundTrip(t *testing.T) {
	at := time.Date(2025, 9, 7, 13, 0, 0, 0, time.FixedZone("EST", -5*3600))

	assert.Equal(t, sql.NullTime{}, ToNullTime(nil))
	assert.Equal(t, sql.NullTime{}, ToNullTimeValue(time.Time{}))
	assert.Equal(t, sql.NullTime{Time: at, Valid: true}, ToNullTime(&at))

	got := FromNullTime(ToNullTime(&at))
	if assert.NotNil(t, got) {
		assert.True(t, got.Equal(at))
		assert.Equal(t, time.UTC, got.Location())
	}
	assert.Nil(t, FromNullTime(sql.NullTime{}))
	assert.True(t, FromNullTimeValue(sql.NullTime{}).IsZero())
}
