package tasks

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/s1natex/tasks-web-GO/internal/flash"
)

const (
	msgTitleRequired = "Title is required!"
	msgTaskAdded     = "Task added successfully!"
	msgTaskUpdated   = "Task updated successfully!"
	msgTaskDeleted   = "Task deleted successfully!"
)

// Deps are the collaborators shared by the task handlers.
type Deps struct {
	Repo   Repository
	Flash  *flash.Store
	Logger *slog.Logger
}

// RegisterRoutes mounts the task pages. Delete and toggle answer GET for
// link-style clients and POST for the forms the pages render.
func RegisterRoutes(r chi.Router, d Deps) {
	r.Get("/", listTasks(d))
	r.Get("/add", addTaskForm(d))
	r.Post("/add", createTask(d))
	r.Get("/edit/{id}", editTaskForm(d))
	r.Post("/edit/{id}", updateTask(d))
	r.Get("/delete/{id}", deleteTask(d))
	r.Post("/delete/{id}", deleteTask(d))
	r.Get("/toggle/{id}", toggleTask(d))
	r.Post("/toggle/{id}", toggleTask(d))
}

func listTasks(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := d.Repo.List(r.Context())
		if err != nil {
			d.fail(w, r, err)
			return
		}
		d.show(w, r, "index", page{
			Title: "Tasks",
			Tasks: tasks,
		})
	}
}

func addTaskForm(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.show(w, r, "add", page{
			Title: "Add New Task",
		})
	}
}

func createTask(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := parseCreateTaskInput(r)
		if err != nil {
			d.badRequest(w, r)
			return
		}
		if err := in.validate(); err != nil {
			d.notify(w, r, flash.Error, msgTitleRequired)
			http.Redirect(w, r, "/add", http.StatusFound)
			return
		}

		t, err := d.Repo.Create(r.Context(), in.Title, in.Description)
		if err != nil {
			// the store repeats the title check
			if errors.Is(err, ErrTitleRequired) {
				d.notify(w, r, flash.Error, msgTitleRequired)
				http.Redirect(w, r, "/add", http.StatusFound)
				return
			}
			d.fail(w, r, err)
			return
		}

		d.Logger.Info("task_created", slog.Int64("id", t.ID))
		d.notify(w, r, flash.Success, msgTaskAdded)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

func editTaskForm(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(r)
		if !ok {
			d.notFound(w, r)
			return
		}
		t, err := d.Repo.Get(r.Context(), id)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		d.show(w, r, "edit", page{
			Title: "Edit Task",
			Task:  t,
		})
	}
}

func updateTask(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(r)
		if !ok {
			d.notFound(w, r)
			return
		}
		in, err := parseEditTaskInput(r)
		if err != nil {
			d.badRequest(w, r)
			return
		}
		if _, err := d.Repo.Update(r.Context(), id, in.Title, in.Description, in.Completed); err != nil {
			d.fail(w, r, err)
			return
		}

		d.Logger.Info("task_updated", slog.Int64("id", id))
		d.notify(w, r, flash.Success, msgTaskUpdated)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

func deleteTask(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(r)
		if !ok {
			d.notFound(w, r)
			return
		}
		if err := d.Repo.Delete(r.Context(), id); err != nil {
			d.fail(w, r, err)
			return
		}

		d.Logger.Info("task_deleted", slog.Int64("id", id))
		d.notify(w, r, flash.Success, msgTaskDeleted)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

func toggleTask(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(r)
		if !ok {
			d.notFound(w, r)
			return
		}
		t, err := d.Repo.Toggle(r.Context(), id)
		if err != nil {
			d.fail(w, r, err)
			return
		}

		d.Logger.Debug("task_toggled", slog.Int64("id", id), slog.Bool("completed", t.Completed))
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// taskID reads the {id} segment. Anything that is not a positive integer
// cannot name a task.
func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (d Deps) notify(w http.ResponseWriter, r *http.Request, category, text string) {
	if err := d.Flash.Add(w, r, category, text); err != nil {
		d.Logger.Warn("flash_error", slog.String("error", err.Error()))
	}
}

// show renders a page with the pending notifications. The flash cookie is
// cleared only once the page has rendered, so a failed render keeps them.
func (d Deps) show(w http.ResponseWriter, r *http.Request, name string, p page) {
	p.Flashes = d.Flash.Peek(r)
	buf, err := executePage(name, p)
	if err != nil {
		d.renderFailed(w, r, name, err)
		return
	}
	d.Flash.Clear(w, r)
	writePage(w, http.StatusOK, buf)
}

func (d Deps) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	buf, err := executePage(name, p)
	if err != nil {
		d.renderFailed(w, r, name, err)
		return
	}
	writePage(w, status, buf)
}

func (d Deps) renderFailed(w http.ResponseWriter, r *http.Request, name string, err error) {
	d.Logger.Error("render_error",
		slog.String("page", name),
		slog.String("error", err.Error()),
		slog.String("req_id", chimw.GetReqID(r.Context())),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// fail maps a store error onto a response.
func (d Deps) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		d.notFound(w, r)
		return
	}
	d.Logger.Error("store_error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
		slog.String("req_id", chimw.GetReqID(r.Context())),
	)
	d.render(w, r, http.StatusInternalServerError, "error", page{
		Title:   "Internal Server Error",
		Status:  http.StatusInternalServerError,
		Message: "Something went wrong. Please try again.",
	})
}

func (d Deps) notFound(w http.ResponseWriter, r *http.Request) {
	d.render(w, r, http.StatusNotFound, "error", page{
		Title:   "Not Found",
		Status:  http.StatusNotFound,
		Message: "The requested task does not exist.",
	})
}

func (d Deps) badRequest(w http.ResponseWriter, r *http.Request) {
	d.render(w, r, http.StatusBadRequest, "error", page{
		Title:   "Bad Request",
		Status:  http.StatusBadRequest,
		Message: "The submitted form could not be read.",
	})
}
