package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cjk303/tacacs-viewer/internal/api"
	"github.com/cjk303/tacacs-viewer/internal/config"
	"github.com/cjk303/tacacs-viewer/internal/logger"
	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/cjk303/tacacs-viewer/internal/monitoring"
	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/cjk303/tacacs-viewer/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 5 * time.Second
	restartTimeout  = 2 * time.Minute
)

type rootOptions struct {
	configFile string
	port       int
	cfg        *config.Config
}

// buildRootCmd creates the root command. Without a subcommand it serves the API.
func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "tacacs-viewer",
		Short:         "Edit, back up and restore TACACS+ and FreeRADIUS configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(opts.configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				v.Set("server_port", opts.port)
			}
			cfg, err := config.FromViper(v)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger.Init(cfg.LogLevel)
			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (overrides server_port)")

	cmd.AddCommand(
		buildServeCmd(opts),
		buildBackupsCmd(opts),
		buildSnapshotCmd(opts),
		buildRestoreCmd(opts),
		buildRestartCmd(opts),
	)
	return cmd
}

func buildServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (overrides server_port)")
	return cmd
}

func buildBackupsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "Inspect and delete backups",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list [config]",
			Short: "List backups, newest first",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(opts, func(a *app) error {
					return runBackupsList(cmd, a, args)
				})
			},
		},
		&cobra.Command{
			Use:   "delete <identifier>",
			Short: "Delete a backup",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(opts, func(a *app) error {
					name, err := a.configs.DeleteBackup(args[0])
					if err != nil {
						return errors.New(services.Reason(err))
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s backup: %s\n", name, args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func buildSnapshotCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <config>",
		Short: "Back up a live config without changing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				backup, err := a.configs.Snapshot(args[0])
				if err != nil {
					return errors.New(services.Reason(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created backup: %s\n", backup.ID)
				return nil
			})
		},
	}
}

func buildRestoreCmd(opts *rootOptions) *cobra.Command {
	var restart bool
	cmd := &cobra.Command{
		Use:   "restore <identifier>",
		Short: "Replace a live config with one of its backups",
		Long: `Replace a live config with one of its backups.

The identifier is a backup file name such as tacacs.conf.bak.20240101120000,
or a path to it inside the backup directory. The config it belongs to is
taken from its prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				backup, err := a.restores.RestoreByIdentifier(args[0])
				if err != nil {
					return errors.New(services.Reason(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored backup: %s\n", backup.ID)
				if restart {
					return runRestart(cmd, a, backup.Config)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&restart, "restart", false, "Restart the service reading the config afterwards")
	return cmd
}

func buildRestartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restart <service>",
		Short: "Restart the service reading a config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				return runRestart(cmd, a, args[0])
			})
		},
	}
}

func withApp(opts *rootOptions, fn func(a *app) error) error {
	a, err := newApp(opts.cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func runBackupsList(cmd *cobra.Command, a *app, args []string) error {
	var backups []models.Backup
	if len(args) == 1 {
		list, err := a.configs.ListBackups(args[0])
		if err != nil {
			return errors.New(services.Reason(err))
		}
		backups = list
	} else {
		all, err := a.configs.ListAllBackups()
		if err != nil {
			return errors.New(services.Reason(err))
		}
		for _, name := range a.configs.Names() {
			backups = append(backups, all[name]...)
		}
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONFIG\tBACKUP\tSIZE\tCREATED")
	for _, b := range backups {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", b.Config, b.ID, b.Size, b.CreatedAt.Format(time.DateTime))
	}
	return tw.Flush()
}

func runRestart(cmd *cobra.Command, a *app, service string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), restartTimeout)
	defer cancel()

	outcome, err := a.restarts.RequestRestart(ctx, service)
	if err != nil {
		return fmt.Errorf("restarting %s: %s", service, services.Reason(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s restart requested (%s %s).\n", service, outcome.Method, outcome.Target)
	return nil
}

// runServe starts the API and background workers and blocks until SIGINT or SIGTERM.
func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	a, err := newApp(cfg, hub)
	if err != nil {
		return err
	}
	defer a.Close()

	diskWatcher := monitoring.NewDiskWatcher(cfg.BackupDir, cfg.DiskAlertPercent, a.events)
	go diskWatcher.Run()
	defer diskWatcher.Stop()

	scheduler := monitoring.NewScheduler(a.schedules, a.configs, a.restarts, a.events)
	go scheduler.Run()
	defer scheduler.Stop()

	deps := api.Deps{
		Hub:            hub,
		Configs:        a.configs,
		Restores:       a.restores,
		Restarts:       a.restarts,
		Events:         a.events,
		Schedules:      a.schedules,
		Disk:           diskWatcher,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if a.docker != nil {
		deps.Docker = a.docker
	}
	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("backup_dir", cfg.BackupDir).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listening on port %d: %w", cfg.ServerPort, err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("Server exiting")
	return nil
}
