package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/signbridge/emotion"
)

func (a *app) emotionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "emotions",
		Short: "Count the emotions detected in the room so far",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := a.load()
			if err != nil {
				return err
			}
			counts, reason := emotion.Counts(c.EmotionSummaryPath(c.Pipeline.Room))
			out := cmd.OutOrStdout()
			if reason != "" {
				fmt.Fprintln(out, reason)
				return nil
			}
			labels := make([]string, 0, len(counts))
			for l := range counts {
				labels = append(labels, l)
			}
			sort.Slice(labels, func(i, j int) bool {
				if counts[labels[i]] != counts[labels[j]] {
					return counts[labels[i]] > counts[labels[j]]
				}
				return labels[i] < labels[j]
			})
			for _, l := range labels {
				fmt.Fprintf(out, "%-10s %d\n", l, counts[l])
			}
			return nil
		},
	}
}
