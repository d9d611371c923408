package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/etitcombe/todopom/config"
	"github.com/etitcombe/todopom/db"
	"github.com/etitcombe/todopom/rand"
	"golang.org/x/crypto/bcrypt"
)

/*
Maintenance helpers for the to-do client's local database.

1. > ./admin -cmd=pepper
CPjaot8hYLXpm4xIaXHWsQKJWkelY3msP6AbR8wYmrE=
[put it in .config as "pepper" before anyone registers; changing it later locks every user out]
2. > ./admin -cmd=password -pepper=CPjaot8hYLXpm4xIaXHWsQKJWkelY3msP6AbR8wYmrE= -password=fancy-password
$2a$10$r1sE9VECMqhjaikC2z5/iOaSwCDGlVOe4PLwDjJzKLT7iY1QDkF3.
3. > ./admin -cmd=users -db=./database/local.db
4. > ./admin -cmd=tasks -db=./database/local.db
[the admin dashboard: every user's pending and completed tasks]
5. > ./admin -cmd=keys -db=./database/local.db
*/

func main() {
	var (
		cmd      string
		pepper   string
		password string
		dbPath   string
	)
	flag.StringVar(&cmd, "cmd", "", "The command to execute: pepper, password, users, tasks, keys. [Required]")
	flag.StringVar(&pepper, "pepper", "", "The pepper to use when hashing a password. [Required when cmd=password]")
	flag.StringVar(&password, "password", "", "The password to hash. [Required when cmd=password]")
	flag.StringVar(&dbPath, "db", "", "The local database. Defaults to localDb from .config.")
	flag.Parse()

	switch cmd {
	case "pepper":
		generatePepper()
	case "password":
		if pepper == "" || password == "" {
			flag.Usage()
			return
		}
		hashPassword(pepper, password)
	case "users", "tasks", "keys":
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatal(err)
		}
		if dbPath == "" {
			dbPath = cfg.LocalDB
		}
		withLocalStore(dbPath, cfg.Pepper, cmd)
	default:
		flag.Usage()
	}
}

func generatePepper() {
	t, err := rand.RememberToken()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(t)
}

func hashPassword(pepper, password string) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password+pepper), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(hashedBytes))
}

func withLocalStore(dsn, pepper, cmd string) {
	ls, err := db.NewLocalStore(dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := ls.Open(); err != nil {
		log.Fatal(err)
	}
	defer ls.Close()

	errorLog := log.New(os.Stderr, "ERROR ", log.Ldate|log.Ltime|log.Lmsgprefix)
	registry := db.NewRegistry(ls, pepper, errorLog)

	switch cmd {
	case "users":
		listUsers(registry)
	case "tasks":
		printDashboard(registry)
	case "keys":
		keys, err := ls.Keys()
		if err != nil {
			log.Fatal(err)
		}
		for _, k := range keys {
			fmt.Println(k)
		}
	}
}

func listUsers(registry *db.Registry) {
	users, err := registry.Users()
	if err != nil {
		log.Fatal(err)
	}
	for _, u := range users {
		role := "user"
		if u.IsAdmin {
			role = "admin"
		}
		fmt.Printf("%-20s %s\n", u.Name, role)
	}
}

func printDashboard(registry *db.Registry) {
	dashboard, err := registry.Dashboard()
	if err != nil {
		log.Fatal(err)
	}
	db.WriteDashboard(os.Stdout, dashboard)
}
