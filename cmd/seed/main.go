package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/battery-scm/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/battery-scm/backend-go/internal/seed"
)

type dbKey struct{}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newTodayFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "today",
		Usage: "Anchor date for relative demo dates (YYYY-MM-DD)",
		Value: time.Now().Format(time.DateOnly),
	}
}

func initDB(c *cli.Context) error {
	// Initialize database connection
	raw, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := raw.PingContext(c.Context); err != nil {
		raw.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Store the database connection in the context
	db := postgres.New(sqlx.NewDb(raw, "pgx"), 1)
	c.Context = context.WithValue(c.Context, dbKey{}, db)
	return nil
}

func closeDB(c *cli.Context) error {
	// Close the database connection when done
	if db, ok := c.Context.Value(dbKey{}).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) (*postgres.DB, error) {
	db, ok := c.Context.Value(dbKey{}).(*postgres.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Prepare the database and load demo data",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create tables and indexes",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:   "demo",
				Usage:  "Load the battery plant demo data",
				Flags:  []cli.Flag{newDBURLFlag(), newTodayFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runDemo,
			},
			{
				Name:   "all",
				Usage:  "Migrate, then load demo data",
				Flags:  []cli.Flag{newDBURLFlag(), newTodayFlag()},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					if err := runMigrate(c); err != nil {
						return fmt.Errorf("error running migrations: %w", err)
					}
					if err := runDemo(c); err != nil {
						return fmt.Errorf("error loading demo data: %w", err)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runMigrate(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	log.Println("Running migrations...")
	if err := db.Migrate(c.Context); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	log.Println("Migrations applied")
	return nil
}

func runDemo(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	today, err := time.ParseInLocation(time.DateOnly, c.String("today"), time.Local)
	if err != nil {
		return fmt.Errorf("invalid --today %q: %w", c.String("today"), err)
	}

	log.Println("Starting database seeding...")
	data := seed.Demo(today)
	if err := seed.Apply(c.Context, postgres.NewStore(db), data); err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	log.Printf("Seeded %d materials, %d BOMs, %d orders, %d productions",
		len(data.Materials), len(data.BOMs), len(data.Orders), len(data.Productions))
	return nil
}
