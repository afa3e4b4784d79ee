package tasks

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tasks.db")
	repo, err := Open(context.Background(), "sqlite:///"+path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	if _, ok := repo.(*SQLRepo); !ok {
		t.Fatalf("expected *SQLRepo, got %T", repo)
	}
	if _, err := repo.Create(context.Background(), "persisted", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestOpen_SQLiteMemory(t *testing.T) {
	repo, err := Open(context.Background(), "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	if _, err := repo.Create(ctx, "in memory", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 task, got %d", len(list))
	}
}

func TestOpen_Memory(t *testing.T) {
	repo, err := Open(context.Background(), "memory://")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := repo.(*InMemoryRepo); !ok {
		t.Fatalf("expected *InMemoryRepo, got %T", repo)
	}
}

func TestOpen_RejectsBadURLs(t *testing.T) {
	cases := map[string]string{
		"tasks.db":          "missing scheme",
		"redis://localhost": "unsupported scheme",
		"sqlite://":         "sqlite path is empty",
		"sqlite:///":        "sqlite path is empty",
	}
	for url, want := range cases {
		_, err := Open(context.Background(), url)
		if err == nil {
			t.Errorf("Open(%q) should fail", url)
			continue
		}
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Open(%q) err = %v, want it to mention %q", url, err, want)
		}
	}
}

func TestSQLiteDSN(t *testing.T) {
	dir := t.TempDir()

	dsn, err := sqliteDSN("/" + filepath.Join(dir, "a.db"))
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:"+filepath.ToSlash(dir)) {
		t.Fatalf("absolute path lost: %s", dsn)
	}
	if !strings.Contains(dsn, "busy_timeout(5000)") {
		t.Fatalf("expected busy_timeout pragma: %s", dsn)
	}

	mem, err := sqliteDSN("/:memory:")
	if err != nil || mem != ":memory:" {
		t.Fatalf("memory dsn = %q, %v", mem, err)
	}
}

func TestDialectRebind(t *testing.T) {
	q := `UPDATE tasks SET title = ?, completed = ? WHERE id = ?`

	if got := sqliteDialect.rebind(q); got != q {
		t.Fatalf("sqlite should keep ? placeholders, got %s", got)
	}
	if got := mysqlDialect.rebind(q); got != q {
		t.Fatalf("mysql should keep ? placeholders, got %s", got)
	}
	want := `UPDATE tasks SET title = $1, completed = $2 WHERE id = $3`
	if got := postgresDialect.rebind(q); got != want {
		t.Fatalf("postgres rebind = %s, want %s", got, want)
	}
}
