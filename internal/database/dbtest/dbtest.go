// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"valorant-missions/internal/database"

	"github.com/rs/zerolog"
)

var counter atomic.Int64

// New returns a migrated in-memory database private to the calling test.
func New(t testing.TB) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, counter.Add(1))

	db, err := database.Open(dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	// shared-cache memory databases fail fast on table locks instead of waiting
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
