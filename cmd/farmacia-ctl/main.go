package main

import (
	"context"
	"fmt"
	"os"

	"farmacia-data/internal/app"
	"farmacia-data/internal/common/logger"
	"farmacia-data/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "farmacia-ctl",
		Short:         "Operator tool for the farmacia-data store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("user", "admin", "Username recorded as the actor")
	rootCmd.PersistentFlags().String("role", "Administrador", "Role used for permission checks")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withApp 打开存储并组装服务，执行完后关闭
func withApp(fn func(ctx context.Context, a *app.App, log *zap.Logger) error) error {
	cfg := config.Load()
	log, err := logger.NewLogger(cfg.Log.Level, "console", "farmacia-ctl")
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	st, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	a := app.New(ctx, cfg, st, log)
	defer a.Close()
	return fn(ctx, a, log)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema for the configured SQL backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			// OpenStore 已执行建表
			return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default accounts when the user table is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
				n, err := a.Users.SeedDefaults(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %d users\n", n)
				return nil
			})
		},
	}
}
