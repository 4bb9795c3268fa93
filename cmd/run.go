package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/signbridge/observability"
	"github.com/maastricht-university/signbridge/orchestrator"
)

func (a *app) runCmd() *cobra.Command {
	var skipProbe bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the live capture pipeline until interrupted or the source ends",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, log, err := a.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !skipProbe {
				if err := orchestrator.Probe(ctx, c, log); err != nil {
					return fmt.Errorf("service health: %w", err)
				}
			}

			metrics, err := observability.NewMetrics(ctx, observability.MetricsConfig{
				ServiceName:    c.Pipeline.Name,
				ServiceVersion: c.Pipeline.Version,
				Endpoint:       c.Telemetry.Endpoint,
				Insecure:       c.Telemetry.Insecure,
				Enabled:        c.Telemetry.Enabled,
			}, log)
			if err != nil {
				return err
			}

			deps, closer, err := orchestrator.Build(ctx, c, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := closer.Close(); err != nil {
					log.WithError(err).Warn("release failed")
				}
			}()
			deps.Metrics = metrics

			p, err := orchestrator.NewPipeline(c, deps)
			if err != nil {
				return err
			}
			b, err := p.Run(ctx)
			if b != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "session %s: %d frames, %d sentences (%s)\n",
					b.SessionID, b.Frames, len(b.Sentences), b.StopReason)
				if b.ReportPath != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "report:", b.ReportPath)
				}
			}
			return err
		},
	}
	cmd.Flags().String("source", "", `capture source, "camera:<index>" or "dir:<path>"`)
	_ = a.v.BindPFlag("capture.source", cmd.Flags().Lookup("source"))
	cmd.Flags().BoolVar(&skipProbe, "skip-probe", false, "do not check gRPC health endpoints before starting")
	return cmd
}
