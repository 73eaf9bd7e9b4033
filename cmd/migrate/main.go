package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/marketloop/marketloop-backend/pkg/config"
	"github.com/marketloop/marketloop-backend/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", migrate.DefaultDir, "directory with migration files")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: migrate [-dir migrations] <command> [args]")
		os.Exit(2)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrate.Run(context.Background(), db, *dir, command, args[1:]...); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}
