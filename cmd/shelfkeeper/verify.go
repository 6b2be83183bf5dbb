package main

import (
	"fmt"

	"shelfkeeper/internal/dupes"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <id>...",
	Short: "Check which records a deletion request would be allowed to remove",
	Long: `Verify runs the deletion planner without deleting anything. Each
requested record id is classified as safe or blocked under the chosen
mode; blocked records carry the reason deletion would be refused.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().String("mode", "hash", "grouping mode: hash or title")
	viper.BindPFlag("verify.mode", verifyCmd.Flags().Lookup("mode"))
}

func runVerify(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	ids, err := parseIDArgs(args)
	if err != nil {
		return err
	}

	mode, err := dupes.ParseMode(viper.GetString("verify.mode"))
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	plan, err := dupes.NewPlanner(db).Plan(ids, mode)
	if err != nil {
		return err
	}

	for _, id := range plan.SafeIDs {
		fmt.Printf("safe     [%d]\n", id)
	}
	for _, blocked := range plan.Blocked {
		fmt.Printf("blocked  [%d] %s\n", blocked.ID, blocked.Reason)
	}
	fmt.Printf("\n%d safe, %d blocked\n", len(plan.SafeIDs), len(plan.Blocked))

	return nil
}
