package cmd

import (
	"github.com/irtlab/adaptest/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adaptest",
	Short: "Adaptive cognitive-ability testing engine",
	Long: "Adaptest — a computerized adaptive testing (CAT) engine: EAP ability\n" +
		"estimation under a 2PL/3PL IRT model, information-maximizing item\n" +
		"selection with exposure control, content balancing, and multi-criteria\n" +
		"stopping rules.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ADAPTEST_DB env var)")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then ADAPTEST_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
