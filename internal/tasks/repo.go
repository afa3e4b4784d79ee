package tasks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrTitleRequired = errors.New("title required")
	ErrNotFound      = errors.New("task not found")
)

// Repository is the task store. Implementations commit every mutation
// before returning.
type Repository interface {
	// List returns every task, newest first.
	List(ctx context.Context) ([]Task, error)
	Create(ctx context.Context, title, description string) (Task, error)
	Get(ctx context.Context, id int64) (Task, error)
	// Update overwrites title, description and completed. It does not
	// validate the title.
	Update(ctx context.Context, id int64, title, description string, completed bool) (Task, error)
	Toggle(ctx context.Context, id int64) (Task, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}

// validTitle only rejects an empty title; whitespace is a title.
func validTitle(title string) bool {
	return title != ""
}

type InMemoryRepo struct {
	mu    sync.Mutex
	seq   int64
	store map[int64]Task
	now   func() time.Time
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		store: make(map[int64]Task),
		now:   time.Now,
	}
}

func (r *InMemoryRepo) Create(_ context.Context, title, description string) (Task, error) {
	if !validTitle(title) {
		return Task{}, ErrTitleRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	t := Task{
		ID:          r.seq,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   r.now().UTC(),
	}
	r.store[t.ID] = t
	return t, nil
}

func (r *InMemoryRepo) List(_ context.Context) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Task, 0, len(r.store))
	for _, t := range r.store {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *InMemoryRepo) Get(_ context.Context, id int64) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.store[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *InMemoryRepo) Update(_ context.Context, id int64, title, description string, completed bool) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.store[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	t.Title = title
	t.Description = description
	t.Completed = completed
	r.store[id] = t
	return t, nil
}

func (r *InMemoryRepo) Toggle(_ context.Context, id int64) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.store[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	t.Completed = !t.Completed
	r.store[id] = t
	return t, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[id]; !ok {
		return ErrNotFound
	}
	delete(r.store, id)
	return nil
}

func (r *InMemoryRepo) Ping(context.Context) error { return nil }

func (r *InMemoryRepo) Close() error { return nil }
