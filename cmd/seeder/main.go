package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unclebandit/creatorhub-backend/internal/config"
	"github.com/unclebandit/creatorhub-backend/internal/db"
)

var (
	cfgFile   string
	seedFiles []string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Database setup for the creator marketplace",
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create tables and indexes",
	RunE:  runSchema,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Apply schema, then load demo data from SQL files",
	RunE:  runSeed,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults to CONFIG_FILE)")
	seedCmd.Flags().StringSliceVarP(&seedFiles, "file", "f", []string{"seed/demo.sql"}, "SQL files to execute, in order")
	rootCmd.AddCommand(schemaCmd, seedCmd)
}

func openDB(cmd *cobra.Command) (context.Context, *sql.DB, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := db.Open(ctx, cfg.Database.URL, nil)
	if err != nil {
		return nil, nil, err
	}
	return ctx, conn, nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	ctx, conn, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.ApplySchema(ctx, conn); err != nil {
		return err
	}
	fmt.Println("Schema applied")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, conn, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.ApplySchema(ctx, conn); err != nil {
		return err
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute %s: %w", file, err)
		}
		fmt.Printf("Seeded: %s\n", file)
	}

	fmt.Println("Database seeding completed successfully!")
	return nil
}
