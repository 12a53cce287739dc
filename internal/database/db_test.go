package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	got := dsn("root", "pw", "localhost", "3306", "bonsai")
	assert.Equal(t,
		"root:pw@tcp(localhost:3306)/bonsai?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		got)
}

func TestDSNNoPassword(t *testing.T) {
	got := dsn("root", "", "db", "3306", "bonsai")
	assert.Contains(t, got, "root@tcp(db:3306)/bonsai?")
	// Matched-rows reporting keeps RowsAffected()==0 meaning "row absent"
	// even when an owner resubmits an unchanged form.
	assert.Contains(t, got, "clientFoundRows=true")
}
