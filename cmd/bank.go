package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/irtlab/adaptest/internal/itembank"
	"github.com/irtlab/adaptest/internal/store"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Manage the calibrated item bank",
}

var bankValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate an item bank JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := itembank.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d items OK\n", args[0], bank.Size())
		for _, d := range itembank.AllDomains() {
			if n := len(bank.DomainItems(d)); n > 0 {
				fmt.Printf("  %-20s %d\n", itembank.DomainDisplayName(d), n)
			}
		}
		return nil
	},
}

var bankImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an item bank JSON file into the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := itembank.LoadFile(args[0])
		if err != nil {
			return err
		}

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		repo := st.BankRepo()
		if err := repo.ImportItems(cmd.Context(), bank.Items()); err != nil {
			return fmt.Errorf("import items: %w", err)
		}
		if err := repo.SaveExposure(cmd.Context(), bank); err != nil {
			return fmt.Errorf("import exposure: %w", err)
		}

		fmt.Printf("imported %d items into %s\n", bank.Size(), dbPath)
		return nil
	},
}

var bankStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-item exposure statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		stats, err := st.BankRepo().ExposureStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("exposure stats: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("no items in bank")
			return nil
		}

		fmt.Printf("%-16s %-12s %12s %8s\n", "ITEM", "DOMAIN", "ADMINISTERED", "RATE")
		for _, s := range stats {
			flag := ""
			if s.Rate > 0.25 {
				flag = "  (overused)"
			}
			fmt.Printf("%-16s %-12s %12d %7.1f%%%s\n", s.ItemID, s.Domain, s.Administered, 100*s.Rate, flag)
		}
		return nil
	},
}

func init() {
	bankCmd.AddCommand(bankValidateCmd)
	bankCmd.AddCommand(bankImportCmd)
	bankCmd.AddCommand(bankStatsCmd)
}
