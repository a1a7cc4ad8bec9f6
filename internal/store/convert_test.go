package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNullUUID(t *testing.T) {
	got, err := parseNullUUID(sql.NullString{})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseNullUUID(sql.NullString{Valid: true, String: ""})
	require.NoError(t, err)
	assert.Nil(t, got)

	id := uuid.New()
	got, err = parseNullUUID(sql.NullString{Valid: true, String: id.String()})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)

	_, err = parseNullUUID(sql.NullString{Valid: true, String: "not-a-uuid"})
	assert.Error(t, err)
}

func TestMonthsRoundtrip(t *testing.T) {
	assert.Equal(t, "", formatMonths(nil))
	assert.Equal(t, "1,6,12", formatMonths([]time.Month{time.January, time.June, time.December}))

	got, err := parseMonths("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseMonths("1, 6,12")
	require.NoError(t, err)
	assert.Equal(t, []time.Month{time.January, time.June, time.December}, got)

	_, err = parseMonths("13")
	assert.Error(t, err)
	_, err = parseMonths("1,x")
	assert.Error(t, err)
}
