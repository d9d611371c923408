package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	app "github.com/etitcombe/todopom"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// taskStore is an app.TaskStore that can also count its tasks.
type taskStore interface {
	app.TaskStore
	Count(ctx context.Context) (int, error)
}

type server struct {
	infoLog  *log.Logger
	errorLog *log.Logger

	router http.Handler

	taskStore   taskStore
	storageName string
}

func newServer(infoLog, errorLog *log.Logger, ts taskStore, storageName string) *server {
	srv := &server{
		infoLog:  infoLog,
		errorLog: errorLog,
	}
	srv.taskStore = ts
	srv.storageName = storageName
	srv.registerRoutes()
	return srv
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) clientError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	trace := fmt.Sprintf("%s %s: %s\n%s", r.Method, r.URL.Path, err.Error(), debug.Stack())
	s.errorLog.Output(2, trace)

	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.errorLog.Printf("encode response: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
