package main

import (
	"context"
	"fmt"
	"os"

	"farmacia-data/internal/app"
	"farmacia-data/internal/importer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "import <inventory|residents> <file.xlsx>",
		Short:     "Bulk import inventory items or residents from a workbook",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(importer.KindInventory), string(importer.KindResidents)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := importer.ParseKind(args[0])
			if err != nil {
				return err
			}
			sess, err := sessionFromFlags(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
				sum, err := a.Imports.Import(ctx, sess, kind, f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "created: %d, skipped: %d, errors: %d\n", sum.Created, len(sum.Skipped), len(sum.Errors))
				for _, name := range sum.Skipped {
					fmt.Fprintf(out, "  skipped %q (already exists)\n", name)
				}
				for _, e := range sum.Errors {
					fmt.Fprintf(out, "  %s\n", e.Error())
				}
				return nil
			})
		},
	}
}
