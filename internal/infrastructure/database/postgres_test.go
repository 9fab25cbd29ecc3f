package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDSN(t *testing.T) {
	cases := map[string]string{
		"":                                   "",
		"  postgres://u:p@h:5432/db  ":       "postgres://u:p@h:5432/db",
		"postgresql+asyncpg://u:p@h/db":      "postgresql://u:p@h/db",
		"postgres+asyncpg://u:p@h/db":        "postgres://u:p@h/db",
		"postgresql+pgx://u:p@h/db?sslmode=": "postgresql://u:p@h/db?sslmode=",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeDSN(in), in)
	}
}

func TestEmbeddedMigrationsArePresent(t *testing.T) {
	entries, err := embedMigrations.ReadDir("migrations")
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 2)
}
