package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kibbyd/autonomy-plane/internal/decisionlog"
	"github.com/kibbyd/autonomy-plane/internal/reputation"
)

var (
	seedFlagDB    string
	seedFlagRunID int64
	seedFlagClass string
	seedFlagCount int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Append synthetic revision outcomes for trial runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedFlagDB == "" {
			return fmt.Errorf("--db is required")
		}
		class := reputation.OutcomeClass(seedFlagClass)
		if !class.Known() {
			return fmt.Errorf("class must be Beneficial, Neutral, or Harmful; got %q", seedFlagClass)
		}
		if seedFlagCount <= 0 {
			return fmt.Errorf("count must be positive, got %d", seedFlagCount)
		}

		store, err := decisionlog.NewStore(seedFlagDB)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer store.Close()

		now := time.Now().UnixMilli()
		for i := 0; i < seedFlagCount; i++ {
			if _, err := store.AppendOutcome(cmd.Context(), seedFlagRunID, now+int64(i), class); err != nil {
				return err
			}
		}
		fmt.Printf("seeded %d %s outcomes for run %d\n", seedFlagCount, class, seedFlagRunID)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFlagDB, "db", "", "path to autonomy db")
	seedCmd.Flags().Int64Var(&seedFlagRunID, "run", 0, "run id")
	seedCmd.Flags().StringVar(&seedFlagClass, "class", "Neutral", "outcome class to append")
	seedCmd.Flags().IntVar(&seedFlagCount, "count", 1, "number of rows to append")
}
