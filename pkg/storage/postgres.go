package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint failure.
const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id                      TEXT PRIMARY KEY,
	title                   VARCHAR(200) NOT NULL,
	description             TEXT NOT NULL DEFAULT '',
	category                VARCHAR(100) NOT NULL DEFAULT '',
	priority_score          INTEGER NOT NULL DEFAULT 5,
	deadline                TIMESTAMPTZ,
	status                  VARCHAR(20) NOT NULL DEFAULT 'pending',
	ai_enhanced_description TEXT NOT NULL DEFAULT '',
	ai_suggested_tags       TEXT[] NOT NULL DEFAULT '{}',
	context_references      TEXT[] NOT NULL DEFAULT '{}',
	created_at              TIMESTAMPTZ NOT NULL,
	updated_at              TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks (priority_score DESC, created_at DESC);

CREATE TABLE IF NOT EXISTS categories (
	id              TEXT PRIMARY KEY,
	name            VARCHAR(100) NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	usage_frequency INTEGER NOT NULL DEFAULT 0,
	color           VARCHAR(7) NOT NULL DEFAULT '#3B82F6',
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name ON categories (lower(name));

CREATE TABLE IF NOT EXISTS context_entries (
	id                 TEXT PRIMARY KEY,
	content            TEXT NOT NULL,
	source_type        VARCHAR(50) NOT NULL,
	processed_insights JSONB NOT NULL DEFAULT '{}',
	meta_data          JSONB NOT NULL DEFAULT '{}',
	is_processed       BOOLEAN NOT NULL DEFAULT FALSE,
	relevance_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
	extracted_keywords TEXT[] NOT NULL DEFAULT '{}',
	created_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_context_entries_created ON context_entries (created_at DESC);
`

// PostgresRepository stores records in PostgreSQL through lib/pq.
type PostgresRepository struct {
	db *sql.DB
}

var _ task.Repository = (*PostgresRepository)(nil)

// NewPostgresRepository opens and pings the database.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

// Migrate creates the tables when they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// --- tasks ---

const taskColumns = `id, title, description, category, priority_score, deadline, status,
	ai_enhanced_description, ai_suggested_tags, context_references, created_at, updated_at`

func (r *PostgresRepository) SaveTask(ctx context.Context, t *task.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			priority_score = EXCLUDED.priority_score,
			deadline = EXCLUDED.deadline,
			status = EXCLUDED.status,
			ai_enhanced_description = EXCLUDED.ai_enhanced_description,
			ai_suggested_tags = EXCLUDED.ai_suggested_tags,
			context_references = EXCLUDED.context_references,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Title, t.Description, t.Category, t.PriorityScore, t.Deadline, string(t.Status),
		t.AIEnhancedDescription, pq.Array(nonNilStrings(t.AISuggestedTags)), pq.Array(nonNilStrings(t.ContextReferences)),
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetTask(ctx context.Context, id string) (*task.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &task.NotFoundError{Kind: "task", ID: id}
	}
	return t, err
}

func (r *PostgresRepository) DeleteTask(ctx context.Context, id string) error {
	return r.deleteRow(ctx, "tasks", "task", id)
}

func (r *PostgresRepository) ListTasks(ctx context.Context, filter task.TaskFilter) ([]task.Task, error) {
	var w where
	if filter.Status != "" {
		w.add("status = %s", string(filter.Status))
	}
	if filter.Category != "" {
		w.add("category ILIKE %s", "%"+escapeLike(filter.Category)+"%")
	}
	if filter.Priority != 0 {
		w.add("priority_score = %s", filter.Priority)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		w.add("(title ILIKE %s OR description ILIKE %s)", pattern)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + w.sql() +
		` ORDER BY priority_score DESC, created_at DESC` + w.page(filter.Page)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(s scanner) (*task.Task, error) {
	var t task.Task
	var status string
	var deadline sql.NullTime
	err := s.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.PriorityScore, &deadline, &status,
		&t.AIEnhancedDescription, pq.Array(&t.AISuggestedTags), pq.Array(&t.ContextReferences),
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = task.Status(status)
	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	t.AISuggestedTags = nonNilStrings(t.AISuggestedTags)
	t.ContextReferences = nonNilStrings(t.ContextReferences)
	return &t, nil
}

// --- categories ---

const categoryColumns = `id, name, description, usage_frequency, color, is_active, created_at, updated_at`

func (r *PostgresRepository) SaveCategory(ctx context.Context, c *task.Category) error {
	query := `INSERT INTO categories (` + categoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			usage_frequency = EXCLUDED.usage_frequency,
			color = EXCLUDED.color,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Description, c.UsageFrequency, c.Color, c.IsActive, c.CreatedAt, c.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", task.ErrDuplicateName, c.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetCategory(ctx context.Context, id string) (*task.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &task.NotFoundError{Kind: "category", ID: id}
	}
	return c, err
}

func (r *PostgresRepository) GetCategoryByName(ctx context.Context, name string) (*task.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE lower(name) = lower($1)`, name)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &task.NotFoundError{Kind: "category", ID: name}
	}
	return c, err
}

func (r *PostgresRepository) AdjustCategoryUsage(ctx context.Context, name string, delta int, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories
		SET usage_frequency = GREATEST(usage_frequency + $2, 0), updated_at = $3
		WHERE lower(name) = lower($1)`, name, delta, at)
	if err != nil {
		return fmt.Errorf("failed to adjust category usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to adjust category usage: %w", err)
	}
	if n == 0 {
		return &task.NotFoundError{Kind: "category", ID: name}
	}
	return nil
}

func (r *PostgresRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.deleteRow(ctx, "categories", "category", id)
}

func (r *PostgresRepository) ListCategories(ctx context.Context, filter task.CategoryFilter) ([]task.Category, error) {
	var w where
	if filter.IsActive != nil {
		w.add("is_active = %s", *filter.IsActive)
	}
	if filter.MinUsage > 0 {
		w.add("usage_frequency >= %s", filter.MinUsage)
	}
	if filter.Search != "" {
		w.add("name ILIKE %s", "%"+escapeLike(filter.Search)+"%")
	}

	query := `SELECT ` + categoryColumns + ` FROM categories` + w.sql() +
		` ORDER BY usage_frequency DESC, name ASC` + w.page(filter.Page)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []task.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func scanCategory(s scanner) (*task.Category, error) {
	var c task.Category
	err := s.Scan(&c.ID, &c.Name, &c.Description, &c.UsageFrequency, &c.Color, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// --- context entries ---

const contextColumns = `id, content, source_type, processed_insights, meta_data, is_processed,
	relevance_score, extracted_keywords, created_at`

func (r *PostgresRepository) SaveContextEntry(ctx context.Context, e *task.ContextEntry) error {
	insights, err := json.Marshal(e.ProcessedInsights)
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `INSERT INTO context_entries (` + contextColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			source_type = EXCLUDED.source_type,
			processed_insights = EXCLUDED.processed_insights,
			meta_data = EXCLUDED.meta_data,
			is_processed = EXCLUDED.is_processed,
			relevance_score = EXCLUDED.relevance_score,
			extracted_keywords = EXCLUDED.extracted_keywords`

	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.Content, e.SourceType, insights, metaJSON, e.IsProcessed,
		e.RelevanceScore, pq.Array(nonNilStrings(e.ExtractedKeywords)), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save context entry: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetContextEntry(ctx context.Context, id string) (*task.ContextEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contextColumns+` FROM context_entries WHERE id = $1`, id)
	e, err := scanContextEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &task.NotFoundError{Kind: "context entry", ID: id}
	}
	return e, err
}

func (r *PostgresRepository) DeleteContextEntry(ctx context.Context, id string) error {
	return r.deleteRow(ctx, "context_entries", "context entry", id)
}

func (r *PostgresRepository) ListContextEntries(ctx context.Context, filter task.ContextFilter) ([]task.ContextEntry, error) {
	var w where
	if filter.SourceType != "" {
		w.add("source_type = %s", filter.SourceType)
	}
	if filter.IsProcessed != nil {
		w.add("is_processed = %s", *filter.IsProcessed)
	}
	if filter.MinRelevance > 0 {
		w.add("relevance_score >= %s", filter.MinRelevance)
	}

	query := `SELECT ` + contextColumns + ` FROM context_entries` + w.sql() +
		` ORDER BY created_at DESC` + w.page(filter.Page)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list context entries: %w", err)
	}
	defer rows.Close()

	entries := []task.ContextEntry{}
	for rows.Next() {
		e, err := scanContextEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanContextEntry(s scanner) (*task.ContextEntry, error) {
	var e task.ContextEntry
	var insights, meta []byte
	err := s.Scan(&e.ID, &e.Content, &e.SourceType, &insights, &meta, &e.IsProcessed,
		&e.RelevanceScore, pq.Array(&e.ExtractedKeywords), &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(insights, &e.ProcessedInsights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insights: %w", err)
	}
	if err := json.Unmarshal(meta, &e.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	e.ExtractedKeywords = nonNilStrings(e.ExtractedKeywords)
	return &e, nil
}

// --- query helpers ---

type scanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) deleteRow(ctx context.Context, table, kind, id string) error {
	// table is one of the fixed names above, never user input.
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &task.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

// where accumulates numbered placeholder conditions.
type where struct {
	clauses []string
	args    []any
}

// add appends a condition whose %s verbs all refer to the same new argument.
func (w *where) add(format string, arg any) {
	w.args = append(w.args, arg)
	placeholder := fmt.Sprintf("$%d", len(w.args))
	w.clauses = append(w.clauses, strings.ReplaceAll(format, "%s", placeholder))
}

func (w *where) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *where) page(p task.Page) string {
	if p.All {
		return ""
	}
	p = p.Normalize()
	w.args = append(w.args, p.Limit, p.Skip)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
