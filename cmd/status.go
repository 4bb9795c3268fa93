package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/signbridge/clients"
	cfg "github.com/maastricht-university/signbridge/config"
	"github.com/maastricht-university/signbridge/emotion"
	"github.com/maastricht-university/signbridge/orchestrator"
	"github.com/maastricht-university/signbridge/status"
)

func (a *app) statusCmd() *cobra.Command {
	var watch, asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest sentence of the room with its affect and feedback",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, log, err := a.load()
			if err != nil {
				return err
			}
			sentiment, err := orchestrator.SentimentFor(c, clients.NewHTTP(cfg.DurSeconds(c.Timeouts.CapabilitySeconds)))
			if err != nil {
				log.WithError(err).Warn("sentiment unavailable, feedback disabled")
			}
			r := status.NewReader(c.LatestSentencePath(c.Pipeline.Room), emotion.NewAnalyzer(sentiment))
			out := cmd.OutOrStdout()
			if !watch {
				return printStatus(out, r.Read(cmd.Context()), asJSON)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			err = r.Watch(ctx, log, func(s status.Status) {
				if err := printStatus(out, s, asJSON); err != nil {
					log.WithError(err).Warn("status print failed")
				}
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep printing as the sidecar changes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON lines")
	return cmd
}

func printStatus(w io.Writer, s status.Status, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(s)
	}
	_, err := fmt.Fprintf(w, "sentence: %s\nemotion:  %s\nfeedback: %s\n", s.Sentence, s.Emotion, s.Feedback)
	return err
}

