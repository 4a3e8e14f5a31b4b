package main

import (
	"context"
	"fmt"
	"os"

	"farmacia-data/internal/app"
	"farmacia-data/internal/domain"
	"farmacia-data/internal/render"
	"farmacia-data/internal/report"
	"farmacia-data/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func sessionFromFlags(cmd *cobra.Command) (domain.Session, error) {
	user, _ := cmd.Flags().GetString("user")
	roleFlag, _ := cmd.Flags().GetString("role")
	role, ok := domain.ParseRole(roleFlag)
	if !ok {
		return domain.Session{}, fmt.Errorf("unknown role %q", roleFlag)
	}
	return domain.Session{Username: user, Role: role}, nil
}

// reportRequest 未指定的条件取 ReportService 的默认值
func reportRequest(cmd *cobra.Command, def service.ReportRequest) (service.ReportRequest, error) {
	req := def
	if v, _ := cmd.Flags().GetString("from"); v != "" {
		d, err := report.ParseDate(v)
		if err != nil {
			return req, err
		}
		req.From = d
	}
	if v, _ := cmd.Flags().GetString("to"); v != "" {
		d, err := report.ParseDate(v)
		if err != nil {
			return req, err
		}
		req.To = d
	}
	if v, _ := cmd.Flags().GetString("department"); v != "" {
		f, ok := domain.ParseDepartmentFilter(v)
		if !ok {
			return req, fmt.Errorf("unknown department %q", v)
		}
		req.Department = f
	}
	if v, _ := cmd.Flags().GetString("type"); v != "" {
		t, ok := domain.ParseMovementType(v)
		if !ok {
			return req, fmt.Errorf("unknown movement type %q", v)
		}
		req.Type = t
	}
	return req, nil
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Consumption reports",
	}
	cmd.PersistentFlags().String("from", "", "First day (YYYY-MM-DD), defaults to the first of the month")
	cmd.PersistentFlags().String("to", "", "Last day (YYYY-MM-DD), defaults to today")
	cmd.PersistentFlags().String("department", "", "General, Farmacia or Enfermera Jefe")
	cmd.PersistentFlags().String("type", "", "CONSUMO (default) or ENTRADA")
	cmd.PersistentFlags().StringP("output", "o", "", "Output file")

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "List residents with movements and totals per item",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := sessionFromFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
				req, err := reportRequest(cmd, a.Reports.DefaultRequest())
				if err != nil {
					return err
				}
				sum, err := a.Reports.Consumption(ctx, sess, req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s | %s - %s\n", sum.FilterLabel, req.From.Display(), req.To.Display())
				for _, name := range sum.Residents {
					fmt.Fprintf(out, "  %s\n", name)
				}
				for _, t := range sum.Totals {
					fmt.Fprintf(out, "  %-30s %-15s %d\n", t.ItemName, t.Department, t.Quantity)
				}
				if sum.Skipped > 0 {
					fmt.Fprintf(out, "skipped %d movements with unreadable dates\n", sum.Skipped)
				}
				return nil
			})
		},
	}

	pdfCmd := &cobra.Command{
		Use:   "pdf <resident name>",
		Short: "Render the consumption report of one resident as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := sessionFromFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
				req, err := reportRequest(cmd, a.Reports.DefaultRequest())
				if err != nil {
					return err
				}
				data, err := a.Reports.ResidentReport(ctx, sess, req, args[0], render.PDFRenderer{})
				if err != nil {
					return err
				}
				return writeOutput(cmd, fmt.Sprintf("Reporte_%s.pdf", args[0]), data)
			})
		},
	}

	xlsxCmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Export every movement in the range as a workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := sessionFromFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
				req, err := reportRequest(cmd, a.Reports.DefaultRequest())
				if err != nil {
					return err
				}
				data, err := a.Reports.ExportXLSX(ctx, sess, req)
				if err != nil {
					return err
				}
				return writeOutput(cmd, fmt.Sprintf("consumos_%s_%s.xlsx", req.From, req.To), data)
			})
		},
	}

	cmd.AddCommand(summaryCmd, pdfCmd, xlsxCmd)
	return cmd
}

func writeOutput(cmd *cobra.Command, def string, data []byte) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		path = def
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(data))
	return nil
}
