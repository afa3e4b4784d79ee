package tasks

import (
	"strconv"
	"strings"
)

// dialect captures the differences between the supported SQL backends.
type dialect struct {
	name   string
	driver string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
	// INSERT ... RETURNING id instead of LastInsertId
	returning bool
	schema    []string
}

var (
	sqliteDialect = dialect{
		name:   "sqlite",
		driver: "sqlite",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks (created_at)`,
		},
	}

	postgresDialect = dialect{
		name:      "postgres",
		driver:    "pgx",
		numbered:  true,
		returning: true,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS tasks (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks (created_at)`,
		},
	}

	// MySQL has no CREATE INDEX IF NOT EXISTS, so the index lives in the
	// table definition.
	mysqlDialect = dialect{
		name:   "mysql",
		driver: "mysql",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS tasks (
	id BIGINT PRIMARY KEY AUTO_INCREMENT,
	title TEXT NOT NULL,
	description TEXT,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at VARCHAR(40) NOT NULL,
	INDEX idx_tasks_created_at (created_at)
)`,
		},
	}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
