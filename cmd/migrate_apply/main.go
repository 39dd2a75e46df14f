package main

import (
	"flag"
	"fmt"
	"os"

	"product_transactions/internal/logger"
	"product_transactions/internal/migrations"

	"github.com/joho/godotenv"
)

func main() {
	apply := flag.Bool("apply", false, "apply pending migrations")
	down := flag.Bool("down", false, "roll back every migration")
	version := flag.Bool("version", false, "print the applied schema version")
	flag.Parse()

	_ = godotenv.Load()

	if !*apply && !*down && !*version {
		files, err := migrations.Files()
		if err != nil {
			logger.Fatal("list migrations", "error", err)
		}
		for _, name := range files {
			fmt.Println(name)
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	switch {
	case *down:
		if err := migrations.Down(dsn); err != nil {
			logger.Fatal("rollback failed", "error", err)
		}
		fmt.Println("rolled back")
	case *apply:
		if err := migrations.Up(dsn); err != nil {
			logger.Fatal("apply failed", "error", err)
		}
		fmt.Println("applied")
	}

	if *version || *apply {
		v, dirty, err := migrations.Version(dsn)
		if err != nil {
			logger.Fatal("read version", "error", err)
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
	}
}
