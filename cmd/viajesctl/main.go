package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/viajes-nova/viajes-api/internal/app"
	"github.com/viajes-nova/viajes-api/internal/auth"
	"github.com/viajes-nova/viajes-api/internal/bootstrap"
	"github.com/viajes-nova/viajes-api/internal/platform/db"
	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/jobs"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "viajesctl",
		Short:         "Operational helpers for the Viajes Nova API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedCommand())
	cmd.AddCommand(newJobsCommand())
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func connect(ctx context.Context) (*app.Config, *pgxpool.Pool, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Schema migration operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := db.Migrate(ctx, pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied state of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			return db.MigrationStatus(ctx, pool)
		},
	})
	return cmd
}

func newSeedCommand() *cobra.Command {
	var (
		adminEmail    string
		adminPassword string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create module permissions, base roles and an optional admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := app.NewLogger(cfg)
			if adminEmail == "" {
				adminEmail = cfg.SeedAdminEmail
			}
			if adminPassword == "" {
				adminPassword = cfg.SeedAdminPassword
			}
			var admin *bootstrap.Admin
			if adminEmail != "" || adminPassword != "" {
				admin = &bootstrap.Admin{Email: adminEmail, Password: adminPassword}
			}

			seeder := bootstrap.NewSeeder(
				rbac.NewService(rbac.NewRepository(pool)),
				auth.NewRepository(pool),
				auth.NewBcryptHasher(cfg.BcryptCost),
				logger,
			)
			res, err := seeder.Run(ctx, admin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "permissions: %d, roles created: %v, admin created: %t\n",
				res.Permissions, res.RolesCreated, res.AdminCreated)
			return nil
		},
	}

	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "Admin account email (defaults to SEED_ADMIN_EMAIL)")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "Admin account password (defaults to SEED_ADMIN_PASSWORD)")
	return cmd
}

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Background queue operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print the default queue counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			defer inspector.Close()
			info, err := inspector.GetQueueInfo(jobs.QueueDefault)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				info.Queue, info.Pending, info.Active, info.Scheduled, info.Retry, info.Archived)
			return nil
		},
	})
	return cmd
}
