package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/etitcombe/todopom"
	"github.com/etitcombe/todopom/config"
	"github.com/etitcombe/todopom/db"
)

func main() {
	var (
		port       int
		configPath string
		seed       bool
	)
	flag.IntVar(&port, "port", 0, "the port to start the web server on (overrides the config)")
	flag.StringVar(&configPath, "config", "", "path to a JSON or TOML config file (default .config)")
	flag.BoolVar(&seed, "seed", true, "start an empty in-memory store with the two demo tasks")
	flag.Parse()

	infoLog := log.New(os.Stdout, "INFO  ", log.Ldate|log.Ltime|log.Lmsgprefix)
	errorLog := log.New(os.Stderr, "ERROR ", log.Ldate|log.Ltime|log.Lshortfile|log.Lmsgprefix)

	cfg, err := loadConfig(configPath)
	if err != nil {
		errorLog.Fatal(err)
	}
	if port != 0 {
		cfg.Port = port
	}

	var store taskStore
	switch cfg.Storage {
	case config.StorageSQLite:
		sqliteStore, err := db.NewSQLiteTaskStore(cfg.Database.Path)
		if err != nil {
			errorLog.Fatal(err)
		}
		defer sqliteStore.Close()

		if err := sqliteStore.Open(); err != nil {
			errorLog.Fatal(err)
		}
		store = sqliteStore
	default:
		file := ""
		if cfg.UseFileStorage {
			file = cfg.DataFile
		}
		var initial []app.Task
		if seed {
			initial = db.DefaultTasks()
		}
		store = db.NewMemoryTaskStore(errorLog, file, initial...)
	}

	server := newServer(infoLog, errorLog, store, cfg.Storage)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		ErrorLog:     errorLog,
		Handler:      server,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		s := <-sigint

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		infoLog.Println("shutting down:", s)
		if err := srv.Shutdown(ctx); err != nil {
			// Error from closing listeners, or context timeout:
			errorLog.Printf("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	infoLog.Printf("todo api listening on %d (storage %s)\n", cfg.Port, cfg.Storage)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		// Error starting or closing listener:
		errorLog.Fatalf("HTTP server ListenAndServe: %v", err)
	}

	<-idleConnsClosed
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.LoadConfig()
	}
	return config.LoadConfigFile(path)
}
