package tasks

import "time"

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// createdAtLayout is fixed width so that lexical order of stored values
// matches chronological order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

func formatCreatedAt(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}

func parseCreatedAt(s string) (time.Time, error) {
	return time.Parse(createdAtLayout, s)
}
