package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const selectTaskColumns = `SELECT id, title, description, completed, created_at FROM tasks`

// SQLRepo is a Repository backed by database/sql.
type SQLRepo struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLRepo(d dialect, dsn string) (*SQLRepo, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}
	return &SQLRepo{db: db, dialect: d, now: time.Now}, nil
}

// NewSQLiteRepo opens a SQLite database. Use SQLiteFileDSN to build dsn
// for an on-disk file.
func NewSQLiteRepo(dsn string) (*SQLRepo, error) {
	r, err := newSQLRepo(sqliteDialect, dsn)
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		r.db.SetMaxOpenConns(1)
	}
	return r, nil
}

func (r *SQLRepo) Close() error { return r.db.Close() }

func (r *SQLRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *SQLRepo) q(query string) string { return r.dialect.rebind(query) }

// Create implements Repository.Create with basic validation
func (r *SQLRepo) Create(ctx context.Context, title, description string) (Task, error) {
	if !validTitle(title) {
		return Task{}, ErrTitleRequired
	}
	now := r.now().UTC()
	insert := `INSERT INTO tasks (title, description, created_at) VALUES (?, ?, ?)`
	args := []any{title, description, formatCreatedAt(now)}

	var id int64
	if r.dialect.returning {
		if err := r.db.QueryRowContext(ctx, r.q(insert+` RETURNING id`), args...).Scan(&id); err != nil {
			return Task{}, fmt.Errorf("insert task: %w", err)
		}
	} else {
		res, err := r.db.ExecContext(ctx, r.q(insert), args...)
		if err != nil {
			return Task{}, fmt.Errorf("insert task: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return Task{}, fmt.Errorf("insert task: %w", err)
		}
	}
	return Task{
		ID:          id,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
	}, nil
}

// List implements Repository.List
func (r *SQLRepo) List(ctx context.Context) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, selectTaskColumns+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLRepo) Get(ctx context.Context, id int64) (Task, error) {
	return r.get(ctx, r.db, id)
}

func (r *SQLRepo) Update(ctx context.Context, id int64, title, description string, completed bool) (Task, error) {
	var out Task
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		t, err := r.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			r.q(`UPDATE tasks SET title = ?, description = ?, completed = ? WHERE id = ?`),
			title, description, completed, id,
		); err != nil {
			return fmt.Errorf("update task %d: %w", id, err)
		}
		t.Title = title
		t.Description = description
		t.Completed = completed
		out = t
		return nil
	})
	return out, err
}

func (r *SQLRepo) Toggle(ctx context.Context, id int64) (Task, error) {
	var out Task
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.q(`UPDATE tasks SET completed = NOT completed WHERE id = ?`), id); err != nil {
			return fmt.Errorf("toggle task %d: %w", id, err)
		}
		t, err := r.get(ctx, tx, id)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

func (r *SQLRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyMigrations ensures schema exists
func (r *SQLRepo) ApplyMigrations(ctx context.Context) error {
	for _, stmt := range r.dialect.schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply %s schema: %w", r.dialect.name, err)
		}
	}
	return nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLRepo) get(ctx context.Context, q rowQuerier, id int64) (Task, error) {
	row := q.QueryRowContext(ctx, r.q(selectTaskColumns+` WHERE id = ?`), id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (Task, error) {
	var (
		t       Task
		desc    sql.NullString
		created string
	)
	if err := s.Scan(&t.ID, &t.Title, &desc, &t.Completed, &created); err != nil {
		return Task{}, err
	}
	t.Description = desc.String
	ts, err := parseCreatedAt(created)
	if err != nil {
		return Task{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	t.CreatedAt = ts
	return t, nil
}

// Helper to build DSN like: file:/absolute/path?_pragma=busy_timeout(5000)
func SQLiteFileDSN(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file:" + filepath.ToSlash(abs) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", nil
}
