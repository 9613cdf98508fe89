package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/pulseo/internal/db"
)

// EnvTestDatabaseURL points tests at a Postgres server instead of in-memory SQLite.
const EnvTestDatabaseURL = "PULSEO_TEST_DATABASE_URL"

// NewDB returns a migrated database private to the calling test. SQLite gets a
// uniquely named in-memory database, Postgres a throwaway schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := "t" + strings.ReplaceAll(uuid.NewString(), "-", "")

	if dsn := os.Getenv(EnvTestDatabaseURL); dsn != "" {
		return newPostgres(t, dsn, name)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", name)
	gdb, err := db.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func newPostgres(t testing.TB, dsn, schema string) *gorm.DB {
	t.Helper()

	admin, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, admin.Exec("CREATE SCHEMA "+schema).Error)

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	gdb, err := db.Open(context.Background(), dsn+sep+"search_path="+schema)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close(gdb)
		_ = admin.Exec("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Error
		_ = db.Close(admin)
	})
	return gdb
}
