package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInsert(t *testing.T) {
	rows := [][]any{{"a", 1}, {"b", 2}, {"c", 3}}

	query, args := buildInsert("INSERT INTO t (x, y)", "ON CONFLICT DO NOTHING", 2, 1, 3,
		func(i int) []any { return rows[i] })

	assert.Equal(t, "INSERT INTO t (x, y) VALUES ($1, $2), ($3, $4) ON CONFLICT DO NOTHING", query)
	assert.Equal(t, []any{"b", 2, "c", 3}, args)
}

func TestBuildInsert_NoTail(t *testing.T) {
	query, args := buildInsert("INSERT INTO t (x)", "", 1, 0, 1,
		func(i int) []any { return []any{i} })

	assert.Equal(t, "INSERT INTO t (x) VALUES ($1)", query)
	assert.Equal(t, []any{0}, args)
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullableString(""))
	assert.Equal(t, "x", nullableString("x"))

	assert.Nil(t, nullableUint(nil))
	v := uint64(7)
	assert.Equal(t, int64(7), nullableUint(&v))
}
