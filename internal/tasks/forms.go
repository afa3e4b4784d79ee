package tasks

import "net/http"

type createTaskInput struct {
	Title       string
	Description string
}

func parseCreateTaskInput(r *http.Request) (createTaskInput, error) {
	if err := r.ParseForm(); err != nil {
		return createTaskInput{}, err
	}
	return createTaskInput{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
	}, nil
}

func (in createTaskInput) validate() error {
	if !validTitle(in.Title) {
		return ErrTitleRequired
	}
	return nil
}

// editTaskInput has no validate: edits are stored as submitted, including
// an empty title.
type editTaskInput struct {
	Title       string
	Description string
	Completed   bool
}

func parseEditTaskInput(r *http.Request) (editTaskInput, error) {
	if err := r.ParseForm(); err != nil {
		return editTaskInput{}, err
	}
	return editTaskInput{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		// checkbox: browsers send "on" when checked and omit the key otherwise
		Completed: r.PostForm.Get("completed") != "",
	}, nil
}
