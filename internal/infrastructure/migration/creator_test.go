package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/salesflow/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add orders index", "add_orders_index"},
		{"Add-Orders-Index", "add_orders_index"},
		{"ADD_ORDERS_INDEX", "add_orders_index"},
		{"add__orders__index", "add_orders_index"},
		{"Add Orders 123", "add_orders_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add tracking index", "Index orders by tracking number")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, "000001_add_tracking_index.up.sql", filepath.Base(first.UpPath))
	assert.Equal(t, "000001_add_tracking_index.down.sql", filepath.Base(first.DownPath))

	content, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "Index orders by tracking number"))

	second, err := CreateMigration(dir, "add-carrier column", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)

	names, err := ListMigrations(os.DirFS(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_add_tracking_index", "000002_add_carrier_column"}, names)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations_Embedded(t *testing.T) {
	names, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "000001_init", names[0])
}
