package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "integration-password"

	defaultDirectusImage = "directus/directus:10.13.1"
)

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	Journal            *gorm.DB
	RawJournal         *sql.DB
	Network            *testcontainers.DockerNetwork
	Postgres           testcontainers.Container
	Directus           testcontainers.Container
	DirectusURL        string
	JournalDatabaseURL string
	HTTPClient         *http.Client
}

// NewTestContext starts PostgreSQL and Directus containers on a private
// network. Directus gets the "directus" database; the plan journal lives in
// a separate "journal" database on the same server.
//
// DIRECTUS_IMAGE overrides the Directus image.
func NewTestContext(ctx context.Context) (tc *TestContext, err error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	tc = &TestContext{HTTPClient: &http.Client{Timeout: 10 * time.Second}}
	defer func() {
		if err != nil {
			tc.Close(ctx)
		}
	}()

	tc.Network, err = network.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("directus"),
		tcpostgres.WithUsername("directus"),
		tcpostgres.WithPassword("directus"),
		network.WithNetwork([]string{"postgres"}, tc.Network),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}
	tc.Postgres = pgContainer

	directusDB, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}
	if err := createDatabase(directusDB, "journal"); err != nil {
		return nil, err
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	tc.JournalDatabaseURL = fmt.Sprintf("postgres://directus:directus@%s:%s/journal?sslmode=disable", host, port.Port())

	tc.Journal, err = gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  tc.JournalDatabaseURL,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to journal database: %w", err)
	}
	tc.RawJournal, err = tc.Journal.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}
	if err := runMigrations(tc.RawJournal, migrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	image := os.Getenv("DIRECTUS_IMAGE")
	if image == "" {
		image = defaultDirectusImage
	}
	log.Printf("Starting %s", image)

	tc.Directus, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          image,
			ExposedPorts:   []string{"8055/tcp"},
			Networks:       []string{tc.Network.Name},
			NetworkAliases: map[string][]string{tc.Network.Name: {"directus"}},
			Env: map[string]string{
				"KEY":            "integration-key",
				"SECRET":         "integration-secret",
				"DB_CLIENT":      "pg",
				"DB_HOST":        "postgres",
				"DB_PORT":        "5432",
				"DB_DATABASE":    "directus",
				"DB_USER":        "directus",
				"DB_PASSWORD":    "directus",
				"ADMIN_EMAIL":    adminEmail,
				"ADMIN_PASSWORD": adminPassword,
				"TELEMETRY":      "false",
			},
			WaitingFor: wait.ForHTTP("/server/health").
				WithPort("8055/tcp").
				WithStartupTimeout(3 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start directus container: %w", err)
	}

	endpoint, err := tc.Directus.PortEndpoint(ctx, "8055/tcp", "http")
	if err != nil {
		return nil, fmt.Errorf("failed to get directus endpoint: %w", err)
	}
	tc.DirectusURL = endpoint
	return tc, nil
}

// ResetJournal empties the journal tables between scenarios.
func (tc *TestContext) ResetJournal() error {
	_, err := tc.RawJournal.Exec(`TRUNCATE plan_steps, plan_runs, messages`)
	return err
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.RawJournal != nil {
		_ = tc.RawJournal.Close()
	}
	if tc.Directus != nil {
		_ = tc.Directus.Terminate(ctx)
	}
	if tc.Postgres != nil {
		_ = tc.Postgres.Terminate(ctx)
	}
	if tc.Network != nil {
		_ = tc.Network.Remove(ctx)
	}
}

func createDatabase(connStr, name string) error {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(`CREATE DATABASE ` + name); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return nil
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	paths := []string{
		"../..",
		"..",
		".",
	}

	for _, p := range paths {
		goMod := filepath.Join(p, "go.mod")
		if _, err := os.Stat(goMod); err == nil {
			return filepath.Abs(p)
		}
	}

	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

// runMigrations executes the up migrations in version order
func runMigrations(db *sql.DB, migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s: %w", filepath.Base(file), err)
		}
	}
	return nil
}
