package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/riskwatch/internal/app"
	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/pkg/errors"
)

// newReplayCmd creates the replay subcommand: it reads a finite CSV of
// entity events, runs each through the pipeline synchronously and prints a
// summary.  Kafka and Redis are disabled so a replay never touches shared
// infrastructure.
func newReplayCmd(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <events.csv>",
		Short: "Replay a CSV of entity events through the pipeline once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			events, err := readEvents(args[0])
			if err != nil {
				return err
			}

			cfg.Redis.Enabled = false
			cfg.Sink.KafkaEnabled = false
			cfg.Stream.Source = "csv"
			cfg.Stream.CSVPath = args[0]

			a, err := app.New(cmd.Context(), cfg, logger, app.Options{})
			if err != nil {
				return err
			}
			engine := a.Engine()
			defer engine.Close()

			out := cmd.OutOrStdout()
			var total int
			for _, ev := range events {
				alerts, err := engine.Process(cmd.Context(), ev)
				if err != nil {
					logger.Warn("event failed",
						logging.String("attribute", ev.LookupAttribute),
						logging.Err(err))
					continue
				}
				total += len(alerts)
				fmt.Fprintf(out, "%-30s %-20s alerts=%d\n", ev.EntityKey, ev.LookupAttribute, len(alerts))
			}
			fmt.Fprintf(out, "replayed %d events, %d alerts written to %s\n", len(events), total, cfg.Sink.CSVPath)
			return nil
		},
	}
	return cmd
}

// readEvents parses a complete entity-event CSV.  Column aliases match the
// tailing source so the same files work in both modes.
func readEvents(path string) ([]risk.EntityEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "failed to open events file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "failed to read events header")
	}
	keyIdx, attrIdx, timeIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "entity_key", "supplier", "company":
			keyIdx = i
		case "lookup_attribute", "country":
			attrIdx = i
		case "event_time", "timestamp":
			timeIdx = i
		}
	}
	if keyIdx < 0 || attrIdx < 0 {
		return nil, errors.InvalidParam("events file must have entity_key and lookup_attribute columns")
	}

	var events []risk.EntityEvent
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidParam, "malformed events row")
		}
		if keyIdx >= len(record) || attrIdx >= len(record) {
			continue
		}
		ev := risk.EntityEvent{
			EntityKey:       strings.TrimSpace(record[keyIdx]),
			LookupAttribute: strings.TrimSpace(record[attrIdx]),
			EventTime:       time.Now().UTC(),
		}
		if timeIdx >= 0 && timeIdx < len(record) {
			if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(record[timeIdx])); err == nil {
				ev.EventTime = ts.UTC()
			}
		}
		if ev.EntityKey == "" || ev.LookupAttribute == "" {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

//Personal.AI order the ending
