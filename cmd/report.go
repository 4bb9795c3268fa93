package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/signbridge/archive"
	"github.com/maastricht-university/signbridge/clients"
	cfg "github.com/maastricht-university/signbridge/config"
	"github.com/maastricht-university/signbridge/interaction"
	"github.com/maastricht-university/signbridge/report"
)

// csvFile reads a CSV interaction log without opening it for append.
type csvFile string

func (f csvFile) Records(ctx context.Context) ([]interaction.Record, error) {
	return interaction.ReadCSV(ctx, string(f))
}

func (a *app) reportCmd() *cobra.Command {
	var (
		logPath string
		outDir  string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the session report from an interaction log",
		Long: "Generate the timeline chart, PDF and summary from an interaction log.\n" +
			"A zstd archived CSV log (" + archive.Ext + ") is decompressed first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, log, err := a.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var src interaction.Reader
			switch {
			case logPath != "" && archive.IsArchive(logPath):
				tmp, cleanup, err := archive.Decompress(logPath)
				if err != nil {
					return err
				}
				defer cleanup()
				src = csvFile(tmp)
			case logPath != "":
				src = csvFile(logPath)
			case c.InteractionLog.Backend == "csv":
				src = csvFile(c.InteractionLog.Path)
			default:
				target := c.InteractionLog.Path
				if c.InteractionLog.Backend == "postgres" {
					target = c.InteractionLog.DSN
				}
				l, err := interaction.Open(ctx, c.InteractionLog.Backend, target)
				if err != nil {
					return err
				}
				defer l.Close()
				src = l
			}

			if outDir == "" {
				outDir = c.Paths.Reports
			}
			gen := report.NewGenerator(src, renderer(c), outDir, log)
			rep, err := gen.Generate(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			out := cmd.OutOrStdout()
			for _, line := range report.SummaryLines(rep.Summary) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, "pdf:", rep.PDFPath)
			if rep.ChartPath != "" {
				fmt.Fprintln(out, "chart:", rep.ChartPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "CSV interaction log to read (default from config)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default paths.reports)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func renderer(c *cfg.Root) report.Renderer {
	if c.Services.Visualization.URL != "" {
		return report.RemoteRenderer{
			HTTP: clients.NewHTTP(cfg.DurSeconds(c.Timeouts.SinkSeconds)),
			URL:  c.Services.Visualization.URL,
		}
	}
	return report.ChartRenderer{}
}
