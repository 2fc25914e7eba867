package sqlutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullInt64(t *testing.T) {
	assert.Equal(t, sql.NullInt64{}, ToNullInt64(nil))
	assert.Nil(t, FromNullInt64(sql.NullInt64{}))

	id := int64(42)
	n := ToNullInt64(&id)
	assert.Equal(t, sql.NullInt64{Int64: 42, Valid: true}, n)

	back := FromNullInt64(n)
	require.NotNil(t, back)
	assert.Equal(t, id, *back)

	*back = 7
	assert.Equal(t, int64(42), n.Int64)
}

func TestToNullBool(t *testing.T) {
	assert.False(t, ToNullBool(nil).Valid)

	f := false
	assert.Equal(t, sql.NullBool{Bool: false, Valid: true}, ToNullBool(&f))
}
