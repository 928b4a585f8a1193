//go:build integration

// Package integration runs the billing service against a real PostgreSQL started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// Shared container for all tests in the package
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB is a connection to the shared test database
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

// NewSharedTestDB returns a connection to the package's PostgreSQL container, starting and
// migrating it on first use. Tables are truncated so each test starts empty.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	ctx := context.Background()

	if sharedContainer == nil {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("gridhub_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		require.NoError(t, err, "Failed to start PostgreSQL container")

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err, "Failed to get connection string")

		_, sqlDB := connectToDatabase(t, dsn)
		runMigrations(t, sqlDB)
		_ = sqlDB.Close()

		sharedContainer = container
		sharedContainerDSN = dsn
	}

	db, sqlDB := connectToDatabase(t, sharedContainerDSN)
	tdb := &TestDB{DB: db, SqlDB: sqlDB, DSN: sharedContainerDSN, t: t}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	tdb.CleanTables()
	return tdb
}

// CleanTables truncates every table except the migration bookkeeping
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error
		require.NoError(tdb.t, err, "Failed to truncate table %s", table)
	}
}

// CreateTenant inserts a tenant (user profile) on plan
func (tdb *TestDB) CreateTenant(plan string) uuid.UUID {
	tdb.t.Helper()

	id := uuid.New()
	err := tdb.DB.Exec(`
		INSERT INTO tenants (id, email, name, plan)
		VALUES (?, ?, ?, ?)
	`, id, fmt.Sprintf("owner-%s@example.com", id.String()[:8]), "Test Tenant", plan).Error
	require.NoError(tdb.t, err, "Failed to create tenant")
	return id
}

// CreateProjects inserts n projects owned by tenantID
func (tdb *TestDB) CreateProjects(tenantID uuid.UUID, n int) {
	tdb.t.Helper()

	for i := range n {
		err := tdb.DB.Exec(`INSERT INTO projects (id, owner_id, name) VALUES (?, ?, ?)`,
			uuid.New(), tenantID, fmt.Sprintf("Project %d", i)).Error
		require.NoError(tdb.t, err, "Failed to create project")
	}
}

// CreateTeamMembers inserts one team owned by tenantID with n members
func (tdb *TestDB) CreateTeamMembers(tenantID uuid.UUID, n int) {
	tdb.t.Helper()

	teamID := uuid.New()
	require.NoError(tdb.t, tdb.DB.Exec(`INSERT INTO teams (id, owner_id, name) VALUES (?, ?, ?)`,
		teamID, tenantID, "Team").Error)

	for i := range n {
		err := tdb.DB.Exec(`INSERT INTO team_members (id, team_id, email) VALUES (?, ?, ?)`,
			uuid.New(), teamID, fmt.Sprintf("member-%d@example.com", i)).Error
		require.NoError(tdb.t, err, "Failed to create team member")
	}
}

// CreateAISuggestions inserts n suggestions made by tenantID at createdAt
func (tdb *TestDB) CreateAISuggestions(tenantID uuid.UUID, n int, createdAt time.Time) {
	tdb.t.Helper()

	for range n {
		err := tdb.DB.Exec(`INSERT INTO ai_suggestions (id, tenant_id, created_at) VALUES (?, ?, ?)`,
			uuid.New(), tenantID, createdAt).Error
		require.NoError(tdb.t, err, "Failed to create AI suggestion")
	}
}

// CreateFile inserts a file of sizeBytes uploaded by tenantID
func (tdb *TestDB) CreateFile(tenantID uuid.UUID, sizeBytes int64) {
	tdb.t.Helper()

	err := tdb.DB.Exec(`INSERT INTO files (id, uploaded_by, name, size_bytes) VALUES (?, ?, ?, ?)`,
		uuid.New(), tenantID, "file.bin", sizeBytes).Error
	require.NoError(tdb.t, err, "Failed to create file")
}

// CountRows counts rows of table matching where
func (tdb *TestDB) CountRows(table, where string, args ...any) int64 {
	tdb.t.Helper()

	var n int64
	err := tdb.DB.Table(table).Where(where, args...).Count(&n).Error
	require.NoError(tdb.t, err)
	return n
}

func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	migrationsPath := findMigrationsPath()
	require.NotEmpty(t, migrationsPath, "Could not find migrations directory")

	driver, err := mpg.WithInstance(sqlDB, &mpg.Config{})
	require.NoError(t, err, "Failed to create migration driver")

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	require.NoError(t, err, "Failed to create migrate instance")

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err, "Failed to run migrations")
	}
}

// findMigrationsPath walks up from this file to the repository's migrations directory
func findMigrationsPath() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}

	dir := filepath.Dir(filename)
	for range 5 {
		candidate := filepath.Join(dir, "migrations")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

// CleanupSharedContainer terminates the shared container. Called from TestMain.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedContainerDSN = ""
	}
}
