package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/screwyprof/enos/enos/store/dbrow"
	"github.com/screwyprof/enos/migrations"
	"github.com/screwyprof/enos/pkg/upsert"
)

// Migration constants
const (
	migrationsTableName = "schema_migrations"
	schemaHashPrefix    = "schema_only_"

	// AppCode identifies this application in app_db_version
	AppCode = "enos"
)

// Migration-related errors
var (
	ErrMigrationExecution = errors.New("migration execution failed")
	ErrVersionRecord      = errors.New("app version record failed")
	ErrUnsupportedDialect = errors.New("unsupported dialect")
)

// Result describes a completed migration run
type Result struct {
	Applied int // migrations applied by this run
	Version int // migrations applied in total
}

// SchemaMigrator applies database schema migrations.
// It implements pgtestdb.Migrator so tests share one template database per schema.
type SchemaMigrator struct {
	migrationsDir string
}

var _ pgtestdb.Migrator = (*SchemaMigrator)(nil)

// NewSchemaMigrator creates a migrator for the given directory, or the embedded migrations when empty
func NewSchemaMigrator(migrationsDir string) *SchemaMigrator {
	return &SchemaMigrator{
		migrationsDir: migrationsDir,
	}
}

func (m *SchemaMigrator) Hash() (string, error) {
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}
	sqlMigrator := sqlmigrator.New(migrations.Source(m.migrationsDir), migrationSet)

	baseHash, err := sqlMigrator.Hash()
	if err != nil {
		return "", fmt.Errorf("failed to calculate migration hash for %q: %w", m.migrationsDir, err)
	}

	return schemaHashPrefix + baseHash, nil
}

func (m *SchemaMigrator) Migrate(ctx context.Context, db *sql.DB, _ pgtestdb.Config) error {
	_, err := Apply(ctx, db, upsert.Postgres, m.migrationsDir, time.Now())
	return err
}

// ApplyMigrations applies migrations to PostgreSQL using the provided pgx pool
// and records the resulting schema version.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, migrationsDir string) (Result, error) {
	// Create sql.DB from the pgx pool for sql-migrate
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return Apply(ctx, db, upsert.Postgres, migrationsDir, time.Now())
}

// Apply applies pending migrations to db and records the schema version in app_db_version
func Apply(ctx context.Context, db *sql.DB, dialect upsert.Dialect, migrationsDir string, now time.Time) (Result, error) {
	name, err := migrateDialect(dialect)
	if err != nil {
		return Result{}, err
	}

	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	applied, err := migrationSet.ExecContext(ctx, db, name, migrations.Source(migrationsDir), migrate.Up)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}

	records, err := migrationSet.GetMigrationRecords(db, name)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}

	result := Result{Applied: applied, Version: len(records)}
	if err := RecordAppVersion(ctx, upsert.NewSQLWriter(db, dialect), int64(result.Version), now); err != nil {
		return Result{}, err
	}

	return result, nil
}

// RecordAppVersion stores the schema version of this application, replacing any previous record
func RecordAppVersion(ctx context.Context, w upsert.Writer, version int64, at time.Time) error {
	_, err := upsert.InsertOrReplace(ctx, w, dbrow.AppDBVersion,
		dbrow.AppVersionBatch(AppCode, version, at),
		upsert.WithTransform(dbrow.RowTransform),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVersionRecord, err)
	}
	return nil
}

func migrateDialect(d upsert.Dialect) (string, error) {
	switch d {
	case upsert.Postgres:
		return "postgres", nil
	case upsert.SQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDialect, d)
	}
}
