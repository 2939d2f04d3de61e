package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/irtlab/adaptest/internal/itembank"
	"github.com/irtlab/adaptest/internal/session"
	"github.com/irtlab/adaptest/internal/sim"
	"github.com/irtlab/adaptest/internal/store"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run simulated test administrations against an item bank",
	Long: "Simulates N complete adaptive sessions with a probabilistic responder\n" +
		"at a fixed true ability, then reports convergence, item usage and\n" +
		"exposure statistics. Reads the bank from --bank (JSON) or --db (SQLite).",
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().String("bank", "", "Path to an item bank JSON file")
	simulateCmd.Flags().Int("sessions", 1000, "Number of simulated sessions")
	simulateCmd.Flags().Float64("true-theta", 0.0, "True ability of the simulated population")
	simulateCmd.Flags().Uint64("seed", 1, "Random seed for reproducible studies")
	simulateCmd.Flags().Int("max-items", 0, "Override the maximum items per session")
	simulateCmd.Flags().Float64("se-threshold", 0, "Override the SE convergence threshold")
	simulateCmd.Flags().Bool("persist", false, "Write exposure counters and session records to the database")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	bank, repo, cleanup, err := openBank(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	sessions, _ := cmd.Flags().GetInt("sessions")
	trueTheta, _ := cmd.Flags().GetFloat64("true-theta")
	seed, _ := cmd.Flags().GetUint64("seed")

	cfg := session.DefaultConfig()
	// Test banks rarely span every cognitive domain; only require minimums
	// for the domains the bank actually covers.
	cfg.MinPerDomain = presentDomainMinimums(bank, cfg.MinPerDomain)
	if v, _ := cmd.Flags().GetInt("max-items"); v > 0 {
		cfg.MaxItems = v
	}
	if v, _ := cmd.Flags().GetFloat64("se-threshold"); v > 0 {
		cfg.SEThreshold = v
	}

	stats, err := sim.Run(bank, sim.RunConfig{
		Sessions:  sessions,
		TrueTheta: trueTheta,
		Seed:      seed,
		Engine:    cfg,
	})
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	printStats(stats, trueTheta)

	if stats.Degenerate > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d session(s) hit a degenerate posterior and fell back to the prior\n", stats.Degenerate)
	}
	if stats.BankExhausted > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d session(s) exhausted the bank before stopping — the bank is too small for this configuration\n", stats.BankExhausted)
	}

	persist, _ := cmd.Flags().GetBool("persist")
	if persist {
		if repo == nil {
			return fmt.Errorf("--persist requires a --db bank source")
		}
		if err := repo.SaveExposure(cmd.Context(), bank); err != nil {
			return fmt.Errorf("persist exposure: %w", err)
		}
	}

	return nil
}

func printStats(stats sim.Stats, trueTheta float64) {
	fmt.Printf("sessions:          %d\n", stats.Sessions)
	fmt.Printf("converged:         %d (%.1f%%)\n", stats.Converged, 100*stats.ConvergedRate())
	fmt.Printf("max items reached: %d\n", stats.MaxedOut)
	fmt.Printf("theta plateau:     %d\n", stats.ThetaStable)
	fmt.Printf("mean items:        %.1f\n", stats.MeanItems)
	fmt.Printf("mean theta:        %+.3f (true %+.3f)\n", stats.MeanTheta, trueTheta)
	fmt.Printf("mean SE:           %.3f\n", stats.MeanSE)
	if stats.MaxExposedItem != "" {
		fmt.Printf("most exposed item: %s (%.1f%% of sessions)\n", stats.MaxExposedItem, 100*stats.MaxExposureShare)
	}
}

// openBank loads the item bank from --bank (JSON) or the database.
// The returned cleanup is always safe to defer.
func openBank(cmd *cobra.Command) (*itembank.Bank, store.BankRepo, func(), error) {
	noop := func() {}

	if path, _ := cmd.Flags().GetString("bank"); path != "" {
		bank, err := itembank.LoadFile(path)
		if err != nil {
			return nil, nil, noop, err
		}
		return bank, nil, noop, nil
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, nil, noop, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, noop, fmt.Errorf("open store: %w", err)
	}
	repo := st.BankRepo()
	bank, err := repo.LoadBank(cmd.Context())
	if err != nil {
		st.Close()
		return nil, nil, noop, fmt.Errorf("load bank: %w", err)
	}
	return bank, repo, func() { st.Close() }, nil
}

// presentDomainMinimums drops minimums for domains the bank has no items
// in, so simulation configs stay runnable on partial banks.
func presentDomainMinimums(bank *itembank.Bank, min map[itembank.Domain]int) map[itembank.Domain]int {
	out := make(map[itembank.Domain]int)
	for d, n := range min {
		if len(bank.DomainItems(d)) > 0 {
			out[d] = n
		}
	}
	return out
}
