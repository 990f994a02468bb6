package main

import (
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/migration"
)

const defaultMigrationsDir = "internal/infrastructure/migration/sql"

type migrateOptions struct {
	*rootOptions
	dir string
}

// withMigrator opens the configured database and runs fn against the selected migration set
func (o *migrateOptions) withMigrator(fn func(*migration.Migrator, *zap.Logger) error) (err error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	log, err := o.newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return multierr.Append(fmt.Errorf("failed to ping database: %w", err), db.Close())
	}
	m, err := migration.New(db, migration.Source(o.dir), log)
	if err != nil {
		return multierr.Append(err, db.Close())
	}
	defer func() { err = multierr.Append(err, m.Close()) }()
	return fn(m, log)
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	mopts := &migrateOptions{rootOptions: opts}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PMS database schema",
	}
	cmd.PersistentFlags().StringVar(&mopts.dir, "path", "", "migrations directory (default: the set built into the binary)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return mopts.withMigrator(func(m *migration.Migrator, _ *zap.Logger) error { return m.Up() })
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return mopts.withMigrator(func(m *migration.Migrator, _ *zap.Logger) error { return m.Down() })
			},
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Apply n migrations, or roll back -n",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return mopts.withMigrator(func(m *migration.Migrator, _ *zap.Logger) error { return m.Steps(n) })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return mopts.withMigrator(func(m *migration.Migrator, _ *zap.Logger) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					return opts.print(cmd.OutOrStdout(), map[string]any{"version": version, "dirty": dirty}, func(w io.Writer) {
						fmt.Fprintf(w, "version %d dirty=%t\n", version, dirty)
					})
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return mopts.withMigrator(func(m *migration.Migrator, _ *zap.Logger) error { return m.Force(version) })
			},
		},
		newMigrateCreateCmd(mopts),
		&cobra.Command{
			Use:   "list",
			Short: "List the available migration files",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				names, err := migration.ListMigrations(migration.Source(mopts.dir))
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), names, func(w io.Writer) {
					for _, name := range names {
						fmt.Fprintln(w, name)
					}
				})
			},
		},
	)
	return cmd
}

func newMigrateCreateCmd(mopts *migrateOptions) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Write an empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := mopts.dir
			if dir == "" {
				dir = defaultMigrationsDir
			}
			mf, err := migration.CreateMigration(dir, args[0], description, time.Now())
			if err != nil {
				return err
			}
			return mopts.print(cmd.OutOrStdout(), mf, func(w io.Writer) {
				fmt.Fprintln(w, mf.UpPath)
				fmt.Fprintln(w, mf.DownPath)
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "comment written into both files")
	return cmd
}
