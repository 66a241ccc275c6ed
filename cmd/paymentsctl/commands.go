package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dan9191/payments-tracker/internal/bootstrap"
	"github.com/Dan9191/payments-tracker/internal/config"
	"github.com/Dan9191/payments-tracker/internal/repository"
	"github.com/Dan9191/payments-tracker/internal/scheduler"
	"github.com/Dan9191/payments-tracker/internal/watcher"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending PostgreSQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.StoreDriver != config.DriverPostgres {
				return fmt.Errorf("migrations apply to the postgres driver only, STORE_DRIVER is %q", cfg.StoreDriver)
			}
			return repository.Migrate(cfg.DBConn, bootstrap.NewLogger(cfg.LogLevel))
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import payments from a CSV or XML file",
		Long: `Import payments from a CSV or XML file through the same normalization and
validation as the upload endpoints. The first invalid row rejects the whole file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			n, err := importPath(ctx, e, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d records\n", n)
			return nil
		},
	}
}

func importPath(ctx context.Context, e *env, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return e.svc.ImportFile(ctx, filepath.Base(path), f)
}

func sweepCmd() *cobra.Command {
	var remind bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Advance payment statuses against today's date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			if remind {
				sched, err := scheduler.New(e.cfg.SweepSchedule, e.svc, e.log)
				if err != nil {
					return err
				}
				return sched.RunOnce(ctx)
			}
			res, err := e.svc.SweepStatuses(ctx, e.svc.Today())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "due_now: %d, overdue: %d\n", res.DueNow, res.Overdue)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remind, "remind", false, "also send payment reminders when SMTP is configured")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Import every CSV or XML file dropped into a directory",
		Long: `Import every CSV or XML file dropped into a directory. Handled files are
renamed with an .imported or .failed suffix. Stops on SIGINT or SIGTERM.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close(context.Background())

			w := watcher.New(args[0], func(ctx context.Context, path string) (int, error) {
				return importPath(ctx, e, path)
			}, e.log)
			return w.Run(ctx)
		},
	}
}
