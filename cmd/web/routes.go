package main

import (
	"fmt"
	"net/http"

	"github.com/etitcombe/logifymw"
)

func (s *server) registerRoutes() {
	mux := http.NewServeMux()
	mux.Handle("/api/tasks", s.handleTasks())
	mux.Handle("/api/tasks/", s.handleTask())
	mux.Handle("/status", s.handleStatus())
	mux.Handle("/", s.handleNotFound())

	s.router = s.recoverPanicMw(logifymw.LogIt2(s.infoLog, corsMw(mux)))
}

// corsMw adds permissive CORS headers to every response and answers
// preflight requests itself.
func corsMw(next http.Handler) http.Handler {
	var headers = map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			w.Header().Set(k, v)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) recoverPanicMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				s.serverError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
