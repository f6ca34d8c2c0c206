// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists Artifacts and their AuditRecords in a SQL
// database. Artifacts and audit records are write-once; an artifact and its
// audit record are always written in one transaction.
// Implements: docs/ARCHITECTURE § Artifact Store.
package store

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

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"

	defaultDSN       = "requirements.db"
	defaultListLimit = 50
	maxLineageDepth  = 16
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Artifacts is the operation set of the artifact store. Store implements it
// and Cached decorates it.
type Artifacts interface {
	Create(ctx context.Context, a *types.Artifact) error
	Get(ctx context.Context, id string) (*types.Artifact, error)
	CreateAuditRecord(ctx context.Context, r *types.AuditRecord) error
	CreateWithAudit(ctx context.Context, a *types.Artifact, r *types.AuditRecord) error
	Children(ctx context.Context, id string) ([]types.Artifact, error)
	Lineage(ctx context.Context, id string) ([]types.Artifact, error)
	List(ctx context.Context, opts ListOptions) ([]types.Artifact, error)
	Audit(ctx context.Context, artifactID string) (*types.AuditRecord, error)
	Usage(ctx context.Context) ([]types.UsageSummary, error)
}

// ListOptions filters List.
type ListOptions struct {
	// Kind restricts results to one artifact kind.
	Kind types.ArtifactKind

	// CreatedBy restricts results to one caller.
	CreatedBy string

	// Limit caps the result count. Zero uses 50.
	Limit int
}

// Store is the SQL-backed artifact store.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database named by cfg and creates the schema if it
// does not exist. The sqlite3 driver is the default; its DSN is a file path
// whose directory is created on demand.
func Open(cfg types.StoreConfig) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	dsn := cfg.DSN

	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = defaultDSN
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	case DriverPostgres:
		if dsn == "" {
			return nil, errors.New("store: pgx driver requires a DSN")
		}
	default:
		return nil, fmt.Errorf("store: unknown driver %q (want sqlite3 or pgx)", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			template_standard TEXT NOT NULL,
			process_style TEXT NOT NULL,
			output_language TEXT NOT NULL,
			source_artifact_id TEXT REFERENCES artifacts(id),
			created_by TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_source ON artifacts(source_artifact_id)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_kind ON artifacts(kind)`,
		`CREATE TABLE IF NOT EXISTS audit_records (
			artifact_id TEXT PRIMARY KEY REFERENCES artifacts(id),
			input_mode TEXT NOT NULL,
			input_digest TEXT NOT NULL,
			backend TEXT NOT NULL,
			model TEXT NOT NULL,
			approx_tokens INTEGER NOT NULL,
			sections INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// q adapts a query written with ? placeholders to the driver.
func (s *Store) q(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
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

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create persists a without an audit record. The lineage rule is enforced:
// a System artifact must come from a Business artifact and a Functional
// artifact from a System artifact.
func (s *Store) Create(ctx context.Context, a *types.Artifact) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.insertArtifact(ctx, tx, a)
	})
}

// CreateAuditRecord persists r. A second record for the same artifact is
// rejected.
func (s *Store) CreateAuditRecord(ctx context.Context, r *types.AuditRecord) error {
	return s.insertAudit(ctx, s.db, r)
}

// CreateWithAudit persists a and r in one transaction: either both are
// stored or neither is. An empty r.ArtifactID is set to a.ID.
func (s *Store) CreateWithAudit(ctx context.Context, a *types.Artifact, r *types.AuditRecord) error {
	if r.ArtifactID == "" {
		r.ArtifactID = a.ID
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.insertArtifact(ctx, tx, a); err != nil {
			return err
		}
		return s.insertAudit(ctx, tx, r)
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) insertArtifact(ctx context.Context, ex execer, a *types.Artifact) error {
	if a.ID == "" {
		return errors.New("artifact id is empty")
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("artifact %s: invalid kind %q", a.ID, a.Kind)
	}
	if err := s.checkLineage(ctx, ex, a); err != nil {
		return err
	}

	var source sql.NullString
	if a.SourceArtifactID != "" {
		source = sql.NullString{String: a.SourceArtifactID, Valid: true}
	}
	_, err := ex.ExecContext(ctx, s.q(
		`INSERT INTO artifacts (id, kind, title, body, template_standard, process_style,
			output_language, source_artifact_id, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, string(a.Kind), a.Title, a.Body, string(a.TemplateStandard), string(a.ProcessStyle),
		a.OutputLanguage, source, a.CreatedBy, formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting artifact %s: %w", a.ID, err)
	}
	return nil
}

// checkLineage verifies the source of a derived artifact inside the write
// transaction.
func (s *Store) checkLineage(ctx context.Context, ex execer, a *types.Artifact) error {
	want, derived := a.Kind.Predecessor()
	if a.SourceArtifactID == "" {
		return nil
	}
	if !derived {
		return reqerr.New(reqerr.ErrWrongArtifactKind,
			"artifact %s: %s artifacts cannot have a source", a.ID, a.Kind.DocumentName())
	}

	var kind string
	err := ex.QueryRowContext(ctx, s.q(`SELECT kind FROM artifacts WHERE id = ?`), a.SourceArtifactID).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return reqerr.New(reqerr.ErrSourceNotFound, "source artifact %s not found", a.SourceArtifactID)
	}
	if err != nil {
		return fmt.Errorf("looking up source artifact: %w", err)
	}
	if types.ArtifactKind(kind) != want {
		return reqerr.New(reqerr.ErrWrongArtifactKind,
			"artifact %s: source %s is a %s, want %s",
			a.ID, a.SourceArtifactID, types.ArtifactKind(kind).DocumentName(), want.DocumentName())
	}
	return nil
}

func (s *Store) insertAudit(ctx context.Context, ex execer, r *types.AuditRecord) error {
	_, err := ex.ExecContext(ctx, s.q(
		`INSERT INTO audit_records (artifact_id, input_mode, input_digest, backend, model,
			approx_tokens, sections, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ArtifactID, string(r.InputMode), r.InputDigest, string(r.Backend), r.Model,
		r.ApproxTokens, r.Sections, formatTime(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting audit record for %s: %w", r.ArtifactID, err)
	}
	return nil
}

const artifactColumns = `id, kind, title, body, template_standard, process_style,
	output_language, source_artifact_id, created_by, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row scanner) (types.Artifact, error) {
	var (
		a                              types.Artifact
		kind, standard, style, created string
		source                         sql.NullString
	)
	if err := row.Scan(&a.ID, &kind, &a.Title, &a.Body, &standard, &style,
		&a.OutputLanguage, &source, &a.CreatedBy, &created); err != nil {
		return types.Artifact{}, err
	}
	a.Kind = types.ArtifactKind(kind)
	a.TemplateStandard = types.TemplateStandard(standard)
	a.ProcessStyle = types.ProcessStyle(style)
	a.SourceArtifactID = source.String
	a.CreatedAt = parseTime(created)
	return a, nil
}

// Get returns the artifact with the given id, or an error matching
// reqerr.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*types.Artifact, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+artifactColumns+` FROM artifacts WHERE id = ?`), id)
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reqerr.New(reqerr.ErrNotFound, "artifact %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up artifact %s: %w", id, err)
	}
	return &a, nil
}

// Children returns the artifacts derived directly from id, oldest first.
func (s *Store) Children(ctx context.Context, id string) ([]types.Artifact, error) {
	return s.query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE source_artifact_id = ? ORDER BY created_at, id`, id)
}

// Lineage returns the chain of artifacts ending at id, root first.
func (s *Store) Lineage(ctx context.Context, id string) ([]types.Artifact, error) {
	var chain []types.Artifact
	for next := id; next != ""; {
		if len(chain) == maxLineageDepth {
			return nil, fmt.Errorf("lineage of %s exceeds %d artifacts", id, maxLineageDepth)
		}
		a, err := s.Get(ctx, next)
		if err != nil {
			return nil, err
		}
		chain = append(chain, *a)
		next = a.SourceArtifactID
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// List returns artifacts newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.Artifact, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT ` + artifactColumns + ` FROM artifacts WHERE 1=1`)
	if opts.Kind != "" {
		qb.WriteString(` AND kind = ?`)
		args = append(args, string(opts.Kind))
	}
	if opts.CreatedBy != "" {
		qb.WriteString(` AND created_by = ?`)
		args = append(args, opts.CreatedBy)
	}
	qb.WriteString(` ORDER BY created_at DESC, id LIMIT ?`)
	args = append(args, limit)

	return s.query(ctx, qb.String(), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]types.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var out []types.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Audit returns the audit record of an artifact, or an error matching
// reqerr.ErrNotFound.
func (s *Store) Audit(ctx context.Context, artifactID string) (*types.AuditRecord, error) {
	var (
		r                      types.AuditRecord
		mode, backend, created string
	)
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT artifact_id, input_mode, input_digest, backend, model, approx_tokens, sections, created_at
		 FROM audit_records WHERE artifact_id = ?`), artifactID,
	).Scan(&r.ArtifactID, &mode, &r.InputDigest, &backend, &r.Model, &r.ApproxTokens, &r.Sections, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reqerr.New(reqerr.ErrNotFound, "audit record for %s not found", artifactID)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up audit record: %w", err)
	}
	r.InputMode = types.InputMode(mode)
	r.Backend = types.BackendChoice(backend)
	r.CreatedAt = parseTime(created)
	return &r, nil
}

// Usage totals audit records per backend and model.
func (s *Store) Usage(ctx context.Context) ([]types.UsageSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT backend, model, COUNT(*), CAST(COALESCE(SUM(approx_tokens), 0) AS INTEGER)
		 FROM audit_records GROUP BY backend, model ORDER BY backend, model`)
	if err != nil {
		return nil, fmt.Errorf("querying usage: %w", err)
	}
	defer rows.Close()

	var out []types.UsageSummary
	for rows.Next() {
		var (
			u       types.UsageSummary
			backend string
		)
		if err := rows.Scan(&backend, &u.Model, &u.Generations, &u.Tokens); err != nil {
			return nil, fmt.Errorf("scanning usage: %w", err)
		}
		u.Backend = types.BackendChoice(backend)
		out = append(out, u)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
