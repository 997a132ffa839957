package transcript

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
)

//go:embed migrations
var migrations embed.FS

// ErrUnknownDriver is returned by OpenSQL for an unsupported driver name.
var ErrUnknownDriver = errors.New("transcript: unknown database driver")

// SQLBackend stores turns in the conversations table.
type SQLBackend struct {
	db      *sql.DB
	dialect goose.Dialect
	logger  *slog.Logger
}

// OpenSQL connects to dsn with driver ("sqlite3", "pgx"/"postgres" or
// "mysql") and brings the schema up to date.
func OpenSQL(ctx context.Context, driver, dsn string, logger *slog.Logger) (*SQLBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "transcript.sql")

	name, dialect, err := resolveDriver(driver)
	if err != nil {
		return nil, err
	}
	if dialect == goose.DialectMySQL {
		if dsn, err = withParseTime(dsn); err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dialect == goose.DialectSQLite3 && strings.Contains(dsn, ":memory:") {
		// Every new connection to :memory: is a fresh database.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	b := &SQLBackend{db: db, dialect: dialect, logger: logger}
	if err := b.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return b, nil
}

func resolveDriver(driver string) (string, goose.Dialect, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		return "sqlite3", goose.DialectSQLite3, nil
	case "pgx", "postgres", "postgresql":
		return "pgx", goose.DialectPostgres, nil
	case "mysql":
		return "mysql", goose.DialectMySQL, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func withParseTime(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// MySQLDSN builds a go-sql-driver DSN from discrete connection parameters.
func MySQLDSN(host string, port int, user, password, database string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func (b *SQLBackend) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations/"+string(b.dialect))
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(b.dialect, b.db, fsys)
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		b.logger.Info("migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (b *SQLBackend) rebind(query string) string {
	if b.dialect != goose.DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

const insertTurn = `INSERT INTO conversations (call_id, timestamp, speaker, message, turn, duration_seconds)
VALUES (?, ?, ?, ?, ?, ?)`

// Insert implements Backend.
func (b *SQLBackend) Insert(ctx context.Context, t *Turn) error {
	ts := t.Timestamp.UTC()
	args := []any{t.CallID, ts, string(t.Speaker), t.Message, t.Index, t.Duration}

	if b.dialect == goose.DialectPostgres {
		return b.db.QueryRowContext(ctx, b.rebind(insertTurn+" RETURNING id"), args...).Scan(&t.ID)
	}

	res, err := b.db.ExecContext(ctx, insertTurn, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// Recent implements Backend.
func (b *SQLBackend) Recent(ctx context.Context, limit int) ([]Turn, error) {
	query := `SELECT id, call_id, timestamp, speaker, message, turn, duration_seconds
FROM conversations ORDER BY timestamp DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := b.db.QueryContext(ctx, b.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var speaker string
		if err := rows.Scan(&t.ID, &t.CallID, &t.Timestamp, &speaker, &t.Message, &t.Index, &t.Duration); err != nil {
			return nil, err
		}
		t.Speaker = persona.Speaker(speaker)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Stats implements Backend.
func (b *SQLBackend) Stats(ctx context.Context) (Stats, error) {
	st := Stats{MessagesPerSpeaker: make(map[persona.Speaker]int)}

	var total sql.NullFloat64
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(duration_seconds), 0) FROM conversations`,
	).Scan(&st.TotalMessages, &total)
	if err != nil {
		return st, err
	}
	st.TotalDurationSeconds = total.Float64

	rows, err := b.db.QueryContext(ctx, `SELECT speaker, COUNT(*) FROM conversations GROUP BY speaker`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var speaker string
		var n int
		if err := rows.Scan(&speaker, &n); err != nil {
			return st, err
		}
		st.MessagesPerSpeaker[persona.Speaker(speaker)] = n
	}
	return st, rows.Err()
}

// Close implements Backend.
func (b *SQLBackend) Close() error {
	return b.db.Close()
}

var _ Backend = (*SQLBackend)(nil)
