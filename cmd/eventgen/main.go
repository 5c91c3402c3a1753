package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/relvacode/iso8601"
	"github.com/sosodev/duration"
	"github.com/spf13/cobra"

	"github.com/PratikDhanave/factory-events-service/internal/eventgen"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		count       int
		machineID   string
		eventTime   string
		spread      string
		durationMs  int64
		defectEvery int
		useUUIDs    bool
		output      string
		postURL     string
	)

	cmd := &cobra.Command{
		Use:           "eventgen",
		Short:         "Generate a synthetic batch of factory machine events",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			at := time.Now().UTC().Add(-time.Minute)
			if eventTime != "" {
				parsed, err := iso8601.ParseString(eventTime)
				if err != nil {
					return fmt.Errorf("--event-time: %w", err)
				}
				at = parsed
			}

			var spreadDur time.Duration
			if spread != "" {
				d, err := duration.Parse(spread)
				if err != nil {
					return fmt.Errorf("--spread: %w", err)
				}
				spreadDur = d.ToTimeDuration()
			}

			records, err := eventgen.Generate(eventgen.Options{
				Count:       count,
				MachineID:   machineID,
				EventTime:   at,
				Spread:      spreadDur,
				DurationMs:  durationMs,
				DefectEvery: defectEvery,
				UUIDs:       useUUIDs,
			})
			if err != nil {
				return err
			}

			if postURL != "" {
				client := &http.Client{Timeout: 30 * time.Second}
				resp, err := eventgen.Post(ctx, client, postURL, records)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "batch %s: accepted=%d deduped=%d rejected=%d\n",
					resp.BatchID, resp.Accepted, resp.Deduped, resp.Rejected)
				return nil
			}

			if output == "" || output == "-" {
				return eventgen.Write(cmd.OutOrStdout(), records)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := eventgen.Write(f, records); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s created with %d events\n", output, len(records))
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1000, "Number of events to generate")
	cmd.Flags().StringVar(&machineID, "machine", "M-001", "Machine id for every event")
	cmd.Flags().StringVar(&eventTime, "event-time", "", "ISO-8601 time of the last event (default one minute ago)")
	cmd.Flags().StringVar(&spread, "spread", "", "ISO-8601 duration to spread events over, e.g. PT1H")
	cmd.Flags().Int64Var(&durationMs, "duration-ms", 1000, "durationMs of every event")
	cmd.Flags().IntVar(&defectEvery, "defect-every", 10, "Give every n-th event one defect (0 disables)")
	cmd.Flags().BoolVar(&useUUIDs, "uuid", false, "Use random UUIDs instead of E-<n> event ids")
	cmd.Flags().StringVar(&output, "output", "events.json", "Destination file, or - for stdout")
	cmd.Flags().StringVar(&postURL, "post", "", "Base URL of a running service to send the batch to instead of writing it")
	return cmd
}
