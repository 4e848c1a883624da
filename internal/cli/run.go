package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/kibbyd/autonomy-plane/internal/actionfilter"
	"github.com/kibbyd/autonomy-plane/internal/config"
	"github.com/kibbyd/autonomy-plane/internal/decisionlog"
	"github.com/kibbyd/autonomy-plane/internal/envelope"
	"github.com/kibbyd/autonomy-plane/internal/loop"
	"github.com/kibbyd/autonomy-plane/internal/stagec"
)

var (
	runFlagDB    string
	runFlagRunID int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive an interactive control loop over stdin",
	Long: `Reads one input snapshot per line and prints the resulting verdicts.

Line format: identity self_trust ethics social reputation [hb] [deny] [freeze] [sim]
  hb     — set the ethics hard-block veto
  deny   — anomaly phase reports "deny"
  freeze — ethics phase reports "freeze"
  sim    — record the step as simulated`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runFlagDB != "" {
			cfg.DBPath = runFlagDB
		}
		return runLoop(cmd.Context(), cfg)
	},
}

func init() {
	runCmd.Flags().StringVar(&runFlagDB, "db", "", "path to autonomy db (overrides config)")
	runCmd.Flags().Int64Var(&runFlagRunID, "run", 0, "run id (0 mints one from the clock)")
}

// #region swappable-gate

// swappableGate lets a config reload swap the Stage-C gate under a live
// adapter without disturbing its step counters.
type swappableGate struct {
	mu   sync.Mutex
	gate *stagec.Gate
}

func (s *swappableGate) EvaluateAndApply(ctx context.Context, env *envelope.Envelope, runID int64) (stagec.Result, error) {
	s.mu.Lock()
	g := s.gate
	s.mu.Unlock()
	return g.EvaluateAndApply(ctx, env, runID)
}

func (s *swappableGate) swap(g *stagec.Gate) {
	s.mu.Lock()
	s.gate = g
	s.mu.Unlock()
}

// #endregion swappable-gate

// #region run-loop

func runLoop(ctx context.Context, cfg *config.Config) error {
	store, err := decisionlog.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	runID := runFlagRunID
	if runID == 0 {
		runID = time.Now().Unix()
	}

	gate := &swappableGate{gate: stagec.NewGate(store, cfg.WindowSize)}
	adapter := loop.NewAdapter(gate, store, runID)

	var postureMu sync.Mutex
	posture := cfg.Sandbox.Posture()

	if cfgPath != "" {
		reloader := config.NewReloader(cfgPath, func(next *config.Config) {
			gate.swap(stagec.NewGate(store, next.WindowSize))
			postureMu.Lock()
			posture = next.Sandbox.Posture()
			postureMu.Unlock()
		})
		go func() {
			if err := reloader.Run(ctx); err != nil {
				log.Printf("[RUN] config watcher stopped: %v", err)
			}
		}()
	}

	fmt.Println("Autonomy control plane ready.")
	fmt.Printf("  DB: %s | run: %d | window: %d\n", cfg.DBPath, runID, cfg.WindowSize)
	fmt.Println("Enter: identity self_trust ethics social reputation [hb] [deny] [freeze] [sim] (or 'quit'):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		postureMu.Lock()
		base := posture
		postureMu.Unlock()

		in, err := parseStepLine(line, base)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad input: %v\n", err)
			continue
		}

		res, err := adapter.Step(ctx, in)
		if err != nil {
			log.Printf("[RUN] step rejected: %v", err)
			continue
		}
		printStep(res)
	}
	return scanner.Err()
}

// #endregion run-loop

// #region parse-print

func parseStepLine(line string, base actionfilter.Posture) (loop.StepInput, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return loop.StepInput{}, fmt.Errorf("need 5 scalars, got %d fields", len(fields))
	}

	var scalars [5]float64
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return loop.StepInput{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		scalars[i] = v
	}

	in := loop.StepInput{
		Inputs: envelope.Inputs{
			IdentityConfidence: scalars[0],
			SelfTrust:          scalars[1],
			EthicsScore:        scalars[2],
			SocialAlignment:    scalars[3],
			Reputation:         scalars[4],
		},
		Context: "repl",
	}

	posture := base
	for _, tok := range fields[5:] {
		switch tok {
		case "hb":
			in.Inputs.EthicsHardBlock = true
		case "deny":
			posture.AnomalyDecision = actionfilter.AnomalyDeny
		case "freeze":
			posture.EthicsDecision = actionfilter.EthicsFreeze
		case "sim":
			posture.SimulateFlag = 1
		default:
			return loop.StepInput{}, fmt.Errorf("unknown token %q", tok)
		}
	}
	in.Actions = []loop.ActionRequest{{Kind: "web_action", Posture: posture}}
	return in, nil
}

func printStep(res loop.StepResult) {
	e := res.Envelope
	fmt.Printf("[step %d] score=%.3f effective=%.3f tier=%s cap=%.2f\n",
		e.Step, e.AutonomyScore, e.EffectiveScore(), e.Tier, e.CapMultiplier)
	if res.StageC.Applied {
		fmt.Printf("  stage-c: reputation=%.2f cap=%.2f window_n=%d\n",
			res.StageC.Reputation, res.StageC.Cap, res.StageC.WindowN)
	}
	for _, v := range res.Verdicts {
		fmt.Printf("  action %s: allow=%v reason=%s\n", v.Kind, v.Allow, v.Reason)
	}
	if res.Unlogged {
		fmt.Println("  warning: step unlogged")
	}
}

// #endregion parse-print
