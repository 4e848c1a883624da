package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kibbyd/autonomy-plane/internal/decisionlog"
	"github.com/kibbyd/autonomy-plane/internal/reputation"
)

var (
	inspectFlagDB       string
	inspectFlagRunID    int64
	inspectFlagLast     int
	inspectFlagJSON     bool
	inspectFlagOutcomes bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show recent decision records or outcome tallies for a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectFlagDB == "" {
			return fmt.Errorf("--db is required")
		}
		store, err := decisionlog.NewStore(inspectFlagDB)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer store.Close()

		if inspectFlagOutcomes {
			return inspectOutcomes(cmd, store)
		}
		return inspectDecisions(cmd, store)
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFlagDB, "db", "", "path to autonomy db")
	inspectCmd.Flags().Int64Var(&inspectFlagRunID, "run", 0, "run id")
	inspectCmd.Flags().IntVar(&inspectFlagLast, "last", 20, "show N most recent records")
	inspectCmd.Flags().BoolVar(&inspectFlagJSON, "json", false, "output raw payload docs as JSON")
	inspectCmd.Flags().BoolVar(&inspectFlagOutcomes, "outcomes", false, "tally revision outcomes instead of decisions")
}

// #region decisions

func inspectDecisions(cmd *cobra.Command, store *decisionlog.Store) error {
	decisions, err := store.RecentDecisions(cmd.Context(), inspectFlagRunID, inspectFlagLast)
	if err != nil {
		return err
	}
	if len(decisions) == 0 {
		fmt.Fprintln(os.Stderr, "no decisions found")
		return nil
	}

	if inspectFlagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(decisions)
	}

	fmt.Printf("%-8s %-15s %-15s %s\n", "ROW", "TS_MS", "KIND", "SUMMARY")
	for _, d := range decisions {
		fmt.Printf("%-8d %-15d %-15s %s\n", d.RowID, d.TsMs, d.Kind, summarize(d))
	}
	return nil
}

// summarize pulls the human-relevant fields out of a payload doc.
func summarize(d decisionlog.Decision) string {
	switch d.Kind {
	case decisionlog.KindCompute:
		var doc decisionlog.ComputeDoc
		if json.Unmarshal(d.Payload, &doc) != nil {
			return "(unparsable)"
		}
		return fmt.Sprintf("score=%.3f effective=%.3f tier=%s",
			doc.Envelope.AutonomyScore, doc.Envelope.EffectiveScore, doc.Envelope.Tier)
	case decisionlog.KindStageCApply:
		var doc decisionlog.StageCDoc
		if json.Unmarshal(d.Payload, &doc) != nil {
			return "(unparsable)"
		}
		return fmt.Sprintf("reputation=%.2f cap=%.2f window_n=%d", doc.Reputation, doc.Cap, doc.WindowN)
	case decisionlog.KindActionFilter:
		var doc decisionlog.ActionFilterDoc
		if json.Unmarshal(d.Payload, &doc) != nil {
			return "(unparsable)"
		}
		return fmt.Sprintf("%s allow=%v reason=%s", doc.ActionKind, doc.Allow, doc.Reason)
	default:
		return "(unknown kind)"
	}
}

// #endregion decisions

// #region outcomes

func inspectOutcomes(cmd *cobra.Command, store *decisionlog.Store) error {
	outcomes, err := store.RecentOutcomes(cmd.Context(), inspectFlagRunID, inspectFlagLast)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		fmt.Fprintln(os.Stderr, "no outcomes found")
		return nil
	}

	tally := map[reputation.OutcomeClass]int{}
	for _, o := range outcomes {
		tally[o.Class]++
	}

	rep, n, err := reputation.NewWindow(store).Reputation(cmd.Context(), inspectFlagRunID, inspectFlagLast)
	if err != nil {
		return err
	}

	fmt.Printf("run %d, last %d outcomes:\n", inspectFlagRunID, n)
	fmt.Printf("  Beneficial: %d\n", tally[reputation.OutcomeBeneficial])
	fmt.Printf("  Neutral:    %d\n", tally[reputation.OutcomeNeutral])
	fmt.Printf("  Harmful:    %d\n", tally[reputation.OutcomeHarmful])
	fmt.Printf("  reputation=%.3f cap=%.2f\n", rep, reputation.CapFor(rep))
	return nil
}

// #endregion outcomes
