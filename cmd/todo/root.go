package main

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	app "github.com/etitcombe/todopom"
	"github.com/etitcombe/todopom/client"
	"github.com/etitcombe/todopom/config"
	"github.com/etitcombe/todopom/db"
	"github.com/etitcombe/todopom/tasksync"

	"github.com/spf13/cobra"
)

// App holds the state shared by every command.
type App struct {
	ConfigPath string
	DBPath     string
	APIURL     string
	Timeout    time.Duration
	Verbose    bool

	cfg      config.Config
	local    *db.LocalStore
	registry *db.Registry
	errorLog *log.Logger
}

// run executes the command line in args and releases the local database
// whatever the outcome.
func run(args []string, stdout, stderr io.Writer) error {
	a := &App{}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	defer a.close()
	return cmd.Execute()
}

func newRootCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "todo",
		Short:        "Personal to-do list backed by the task API, with a local fallback",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  todo register alice s3cret
  todo login alice s3cret
  todo add Buy milk
  todo ls --all
  todo done t6a1c...
  todo login Admin admin123 && todo dashboard
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.open(cmd)
	}

	cmd.PersistentFlags().StringVar(&a.ConfigPath, "config", envOr("TODO_CONFIG", ""), "Path to a JSON or TOML config file (default .config)")
	cmd.PersistentFlags().StringVar(&a.DBPath, "db", envOr("TODO_DB", ""), "Path to the local database (overrides localDb in the config)")
	cmd.PersistentFlags().StringVar(&a.APIURL, "api", "", "Base URL of the task API (overrides apiUrl in the config)")
	cmd.PersistentFlags().DurationVar(&a.Timeout, "timeout", 10*time.Second, "Give up on the task API after this long (0 waits forever)")
	cmd.PersistentFlags().BoolVarP(&a.Verbose, "verbose", "v", false, "Log storage and network failures to stderr")

	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newPasswdCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newDoneCmd(a))
	cmd.AddCommand(newRmCmd(a))
	cmd.AddCommand(newLsCmd(a))
	cmd.AddCommand(newDashboardCmd(a))

	return cmd
}

func (a *App) open(cmd *cobra.Command) error {
	var err error
	if a.ConfigPath == "" {
		a.cfg, err = config.LoadConfig()
	} else {
		a.cfg, err = config.LoadConfigFile(a.ConfigPath)
	}
	if err != nil {
		return err
	}
	if a.DBPath != "" {
		a.cfg.LocalDB = a.DBPath
	}
	if a.APIURL != "" {
		a.cfg.APIURL = a.APIURL
	}

	var w io.Writer = ioutil.Discard
	if a.Verbose {
		w = cmd.ErrOrStderr()
	}
	a.errorLog = log.New(w, "ERROR ", log.Ldate|log.Ltime|log.Lmsgprefix)

	a.local, err = db.NewLocalStore(a.cfg.LocalDB)
	if err != nil {
		return err
	}
	if err := a.local.Open(); err != nil {
		return fmt.Errorf("open local storage: %w", err)
	}

	a.registry = db.NewRegistry(a.local, a.cfg.Pepper, a.errorLog)
	created, err := a.registry.Bootstrap()
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.ErrOrStderr(), "[info] Admin account created (username: %s, password: %s)\n", db.AdminName, db.AdminPassword)
	}
	return nil
}

func (a *App) close() error {
	if a.local == nil {
		return nil
	}
	err := a.local.Close()
	a.local = nil
	return err
}

// session returns the logged-in user.
func (a *App) session() (*app.Session, error) {
	s, err := a.registry.Current()
	if errors.Is(err, app.ErrNotFound) {
		return nil, errors.New("not logged in; run: todo login NAME PASSWORD")
	}
	return s, err
}

// controller returns a loaded task controller for the logged-in, non-admin
// user.
func (a *App) controller(cmd *cobra.Command) (*tasksync.Controller, error) {
	s, err := a.session()
	if err != nil {
		return nil, err
	}
	if s.IsAdmin {
		return nil, errors.New("admin accounts have no task list; use: todo dashboard")
	}
	remote := client.New(a.cfg.APIURL, &http.Client{Timeout: a.Timeout})
	c := tasksync.New(remote, a.local, s.Name, tasksync.WriterNotifier(cmd.ErrOrStderr()), a.errorLog)
	c.Load(cmd.Context())
	return c, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
