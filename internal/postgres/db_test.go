package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both binaries run Migrate on boot, so every schema statement must be safe
// to re-apply against an existing database.
func TestSchemaStatementsAreIdempotent(t *testing.T) {
	require.NotEmpty(t, schemaSQL)

	for _, line := range strings.Split(schemaSQL, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "CREATE TABLE") || strings.HasPrefix(trimmed, "CREATE INDEX") {
			assert.Contains(t, trimmed, "IF NOT EXISTS", "statement: %s", trimmed)
		}
	}
}

func TestSchemaCoversAllTables(t *testing.T) {
	for _, table := range []string{
		"users", "stock", "products", "orders", "order_items",
		"payments", "pix_transactions", "invoices",
	} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" ", "table %s", table)
	}
}
