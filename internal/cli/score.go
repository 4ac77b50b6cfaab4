package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/intent-signal-hub/internal/intent"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
	"github.com/ajharbinger/intent-signal-hub/internal/services"
)

func newScoreCmd(opts *options) *cobra.Command {
	var (
		signalsFile string
		entityID    string
		spikes      bool
		cutoff      string
		format      string
		minScore    int
	)
	cfg := intent.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute unified intent scores from a signals file",
		Example: "  signal-eval score --signals signals.json\n" +
			"  signal-eval score --signals signals.json --entity acme --decay-days 14\n" +
			"  signal-eval score --signals signals.json --baseline-before 2024-06-01T00:00:00Z --spikes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var signals []models.Signal
			if err := readJSON(signalsFile, &signals); err != nil {
				return err
			}
			for i := range signals {
				source, err := models.ParseSource(string(signals[i].Source))
				if err != nil {
					return fmt.Errorf("signal %d: %w", i, err)
				}
				signals[i].Source = source
			}

			exportFormat, err := services.ParseExportFormat(format)
			if err != nil {
				return err
			}
			var before time.Time
			if cutoff != "" {
				if before, err = time.Parse(time.RFC3339, cutoff); err != nil {
					return fmt.Errorf("--baseline-before: %w", err)
				}
			}
			if spikes && before.IsZero() {
				return fmt.Errorf("--spikes needs --baseline-before to build the previous scores")
			}
			if spikes && exportFormat == services.FormatCSV {
				return fmt.Errorf("--spikes is only available with --format json")
			}

			svc, err := opts.newServices(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			earlier, later := splitSignals(signals, before)
			var previous []models.UnifiedScore
			if len(earlier) > 0 {
				if _, err := svc.Intent.IngestBatch(ctx, earlier); err != nil {
					return err
				}
				previous = svc.Intent.AllScores(ctx)
			}
			if _, err := svc.Intent.IngestBatch(ctx, later); err != nil {
				return err
			}

			if entityID != "" {
				score, err := svc.Intent.ComputeScore(ctx, entityID)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), score)
			}

			all := svc.Intent.AllScores(ctx)
			var filter services.ScoreFilter
			if cmd.Flags().Changed("min-score") {
				filter.MinScore = &minScore
			}
			scores := services.ApplyFilter(all, filter)
			if exportFormat == services.FormatCSV {
				data, err := services.FormatScores(scores, exportFormat, time.Now())
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			out := map[string]interface{}{"scores": scores}
			if spikes {
				out["spikes"] = spikeRecords(previous, all)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&signalsFile, "signals", "", "JSON array of signals")
	cmd.Flags().StringVar(&entityID, "entity", "", "only score this entity")
	cmd.Flags().BoolVar(&spikes, "spikes", false, "report entities whose score jumped since the baseline")
	cmd.Flags().StringVar(&cutoff, "baseline-before", "", "RFC3339 time; earlier signals are scored first as the baseline")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	cmd.Flags().IntVar(&minScore, "min-score", 0, "only report entities scoring at least this much")
	cmd.Flags().Float64Var(&cfg.DecayWindowDays, "decay-days", cfg.DecayWindowDays, "decay window in days")
	cmd.Flags().Float64Var(&cfg.SourceAWeight, "weight-a", cfg.SourceAWeight, "source A weight")
	cmd.Flags().Float64Var(&cfg.SourceBWeight, "weight-b", cfg.SourceBWeight, "source B weight")
	cmd.Flags().Float64Var(&cfg.SpikeThresholdPercent, "spike-threshold", cfg.SpikeThresholdPercent, "spike threshold in percent")
	_ = cmd.MarkFlagRequired("signals")
	return cmd
}

// splitSignals separates signals observed before cutoff from the rest.
// A zero cutoff puts everything in later.
func splitSignals(signals []models.Signal, cutoff time.Time) (earlier, later []models.Signal) {
	for _, s := range signals {
		if !cutoff.IsZero() && !s.ObservedAt.IsZero() && s.ObservedAt.Before(cutoff) {
			earlier = append(earlier, s)
		} else {
			later = append(later, s)
		}
	}
	return earlier, later
}

func spikeRecords(previous, current []models.UnifiedScore) []models.SpikeRecord {
	byID := make(map[string]models.UnifiedScore, len(previous))
	for _, p := range previous {
		byID[p.EntityID] = p
	}
	spikes := []models.SpikeRecord{}
	for _, score := range current {
		prev, ok := byID[score.EntityID]
		if !ok || !score.IsSpike {
			continue
		}
		spikes = append(spikes, intent.NewSpikeRecord(prev, score))
	}
	return spikes
}
