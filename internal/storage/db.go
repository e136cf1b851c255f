package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"board/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour behind a DB.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// Options addresses a SQL database.
type Options struct {
	Dialect  Dialect
	Path     string // sqlite file
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

// DB wraps a SQL connection and knows how to speak its dialect.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	path    string
}

// New opens (or creates) the SQLite file at dbPath.
func New(dbPath string) (*DB, error) {
	return Open(context.Background(), Options{Dialect: SQLite, Path: dbPath})
}

// Open connects to the database described by opts and runs migrations.
func Open(ctx context.Context, opts Options) (*DB, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch opts.Dialect {
	case SQLite, "":
		opts.Dialect = SQLite
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		conn, err = sql.Open("sqlite", opts.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite only supports one writer; limit to a single connection to prevent SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
	case MySQL:
		conn, err = sql.Open("mysql", mysqlDSN(opts))
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
	case Postgres:
		conn, err = sql.Open("postgres", postgresDSN(opts))
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", opts.Dialect)
	}
	if opts.Dialect != SQLite {
		conn.SetMaxOpenConns(5)
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(10 * time.Minute)
	}

	db := &DB{conn: conn, dialect: opts.Dialect, path: opts.Path}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Dialect, err)
	}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func mysqlDSN(o Options) string {
	port := o.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		o.Username, o.Password, o.Host, port, o.Database,
	)
	if o.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}

func postgresDSN(o Options) string {
	port := o.Port
	if port == 0 {
		port = 5432
	}
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		o.Host, port, o.Username, o.Password, o.Database, sslMode,
	)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Dialect() Dialect { return db.dialect }

// Path returns the SQLite file, or "" for server databases.
func (db *DB) Path() string { return db.path }

// rebind rewrites ? placeholders as $1, $2... for Postgres.
func (db *DB) rebind(q string) string {
	if db.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return db.conn.ExecContext(ctx, db.rebind(q), args...)
}

func (db *DB) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, db.rebind(q), args...)
}

func (db *DB) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return db.conn.QueryRowContext(ctx, db.rebind(q), args...)
}

// upsert builds an insert-or-replace statement keyed on key.
func (db *DB) upsert(table, key string, cols ...string) string {
	all := append([]string{key}, cols...)
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(all)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(all, ", "), marks)
	sets := make([]string, len(cols))
	for i, c := range cols {
		if db.dialect == MySQL {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
		} else {
			sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
	}
	if db.dialect == MySQL {
		return q + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return q + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", key, strings.Join(sets, ", "))
}

// now returns the timestamp written to created_at/updated_at. MySQL DATETIME(6)
// keeps microseconds, so everything is truncated to that.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (db *DB) columnTypes() *strings.Replacer {
	switch db.dialect {
	case MySQL:
		return strings.NewReplacer("{id}", "VARCHAR(64)", "{text}", "LONGTEXT", "{real}", "DOUBLE", "{ts}", "DATETIME(6)")
	case Postgres:
		return strings.NewReplacer("{id}", "TEXT", "{text}", "TEXT", "{real}", "DOUBLE PRECISION", "{ts}", "TIMESTAMPTZ")
	}
	return strings.NewReplacer("{id}", "TEXT", "{text}", "TEXT", "{real}", "REAL", "{ts}", "DATETIME")
}

func (db *DB) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS boards (
			id {id} PRIMARY KEY,
			name {text} NOT NULL,
			created_at {ts} NOT NULL,
			updated_at {ts} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS elements (
			id {id} PRIMARY KEY,
			board_id {id} NOT NULL,
			type VARCHAR(32) NOT NULL,
			x {real} NOT NULL DEFAULT 0,
			y {real} NOT NULL DEFAULT 0,
			width {real} NOT NULL DEFAULT 0,
			height {real} NOT NULL DEFAULT 0,
			rotation {real} NOT NULL DEFAULT 0,
			z_index INTEGER NOT NULL DEFAULT 0,
			payload_json {text} NOT NULL,
			created_at {ts} NOT NULL,
			updated_at {ts} NOT NULL
		)`,
		`CREATE INDEX idx_elements_board ON elements(board_id)`,
		`CREATE TABLE IF NOT EXISTS material_blocks (
			id {id} PRIMARY KEY,
			board_id {id} NOT NULL,
			title {text} NOT NULL,
			x {real} NOT NULL DEFAULT 0,
			y {real} NOT NULL DEFAULT 0,
			width {real} NOT NULL DEFAULT 0,
			height {real} NOT NULL DEFAULT 0,
			cards_count INTEGER NOT NULL DEFAULT 0,
			created_at {ts} NOT NULL,
			updated_at {ts} NOT NULL
		)`,
		`CREATE INDEX idx_material_blocks_board ON material_blocks(board_id)`,
		`CREATE TABLE IF NOT EXISTS board_views (
			board_id {id} PRIMARY KEY,
			record_json {text} NOT NULL,
			updated_at {ts} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			setting_key VARCHAR(128) PRIMARY KEY,
			setting_value {text} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mcp_approvals (
			id {id} PRIMARY KEY,
			tool VARCHAR(128) NOT NULL,
			description {text} NOT NULL,
			status VARCHAR(16) NOT NULL,
			metadata {text} NOT NULL,
			created_at {ts} NOT NULL
		)`,
	}

	types := db.columnTypes()
	for _, m := range migrations {
		stmt := types.Replace(m)
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			// Indexes are created without IF NOT EXISTS, which MySQL lacks; a
			// duplicate means an earlier run already made it.
			if strings.HasPrefix(stmt, "CREATE INDEX") && isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func isDuplicateIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate key name")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// notFound maps sql.ErrNoRows onto the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
