package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/taqiudeen275/furniture-auth/internal/config"
	"github.com/taqiudeen275/furniture-auth/internal/database"
)

const usageText = `Migration CLI for the furniture auth service

Usage:
  migrate [command]

Commands:
  up                Apply all pending migrations
  down              Rollback one migration
  version           Show current migration version
  force <version>   Set the version without running migrations (repairs a dirty state)
`

func main() {
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	args := flag.Args()
	if *help || len(args) == 0 {
		fmt.Print(usageText)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := run(database.NewMigrationService(db), args[0], args[1:]); err != nil {
		db.Close()
		log.Fatalf("Command failed: %v", err)
	}
}

func run(ms *database.MigrationService, command string, args []string) error {
	switch command {
	case "up":
		if err := ms.Up(); err != nil {
			return err
		}
		fmt.Println("✓ Migrations applied")
	case "down":
		if err := ms.Down(); err != nil {
			return err
		}
		fmt.Println("✓ Rolled back one migration")
	case "version":
		version, dirty, err := ms.Version()
		if err != nil {
			return err
		}
		fmt.Printf("Current migration version: %d", version)
		if dirty {
			fmt.Print(" (dirty)")
		}
		fmt.Println()
	case "force":
		if len(args) < 1 {
			return fmt.Errorf("version required for 'force' command")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version: %v", err)
		}
		if err := ms.Force(version); err != nil {
			return err
		}
		fmt.Printf("✓ Forced version %d\n", version)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
	return nil
}
