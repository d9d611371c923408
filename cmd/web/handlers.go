package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	app "github.com/etitcombe/todopom"
)

type createTaskDTO struct {
	Text      *string `json:"text"`
	Completed bool    `json:"completed"`
	User      string  `json:"user"`
}

type statusResponse struct {
	Tasks   int    `json:"tasks"`
	Storage string `json:"storage"`
}

// handleTasks serves the task collection at /api/tasks.
func (s *server) handleTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			tasks, err := s.taskStore.List(r.Context(), r.URL.Query().Get("user"))
			if err != nil {
				s.serverError(w, r, err)
				return
			}
			s.writeJSON(w, http.StatusOK, tasks)

		case http.MethodPost:
			var dto createTaskDTO
			if err := decodeBody(w, r, &dto); err != nil {
				var typeErr *json.UnmarshalTypeError
				if errors.As(err, &typeErr) && typeErr.Field == "text" {
					s.clientError(w, http.StatusBadRequest, "Missing or invalid `text` in body")
					return
				}
				s.clientError(w, http.StatusBadRequest, "Invalid JSON body")
				return
			}
			if dto.Text == nil {
				s.clientError(w, http.StatusBadRequest, "Missing or invalid `text` in body")
				return
			}
			t, err := s.taskStore.Create(r.Context(), *dto.Text, dto.Completed, dto.User)
			if errors.Is(err, app.ErrEmptyText) {
				s.clientError(w, http.StatusBadRequest, "Missing or invalid `text` in body")
				return
			}
			if err != nil {
				s.serverError(w, r, err)
				return
			}
			s.writeJSON(w, http.StatusCreated, t)

		default:
			s.clientError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		}
	}
}

// handleTask serves a single task at /api/tasks/:id.
func (s *server) handleTask() http.HandlerFunc {
	collection := s.handleTasks()
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
		if id == "" {
			collection(w, r)
			return
		}
		if strings.Contains(id, "/") {
			s.clientError(w, http.StatusNotFound, "Not Found")
			return
		}

		t, err := s.taskStore.Get(r.Context(), id)
		if errors.Is(err, app.ErrNotFound) {
			s.clientError(w, http.StatusNotFound, "Task not found")
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		switch r.Method {
		case http.MethodGet:
			s.writeJSON(w, http.StatusOK, t)

		case http.MethodPut, http.MethodPatch:
			var p app.TaskPatch
			if err := decodeBody(w, r, &p); err != nil {
				s.clientError(w, http.StatusBadRequest, "Invalid JSON body")
				return
			}
			updated, err := s.taskStore.Update(r.Context(), id, p)
			switch {
			case errors.Is(err, app.ErrNotFound):
				s.clientError(w, http.StatusNotFound, "Task not found")
			case errors.Is(err, app.ErrEmptyText):
				s.clientError(w, http.StatusBadRequest, "Invalid `text` in body")
			case err != nil:
				s.serverError(w, r, err)
			default:
				s.writeJSON(w, http.StatusOK, updated)
			}

		case http.MethodDelete:
			removed, err := s.taskStore.Delete(r.Context(), id)
			if errors.Is(err, app.ErrNotFound) {
				s.clientError(w, http.StatusNotFound, "Task not found")
				return
			}
			if err != nil {
				s.serverError(w, r, err)
				return
			}
			s.writeJSON(w, http.StatusOK, removed)

		default:
			s.clientError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		}
	}
}

func (s *server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.clientError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
			return
		}
		n, err := s.taskStore.Count(r.Context())
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, statusResponse{Tasks: n, Storage: s.storageName})
	}
}

func (s *server) handleNotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.clientError(w, http.StatusNotFound, "Not Found")
	}
}

// decodeBody decodes a JSON request body holding a single value into v. An
// empty body leaves v as is.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must hold a single JSON value")
	}
	return nil
}
