package main

import (
	"fmt"

	"shelfkeeper/internal/dupes"
	"shelfkeeper/internal/util"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <id>...",
	Short: "Delete duplicate records from the catalog and disk",
	Long: `Dedupe deletes the requested records after running the safety
planner. Records whose removal would eliminate the last copy of a work,
and records the planner cannot verify, are blocked and left untouched.
Catalog rows are removed in one transaction; files are unlinked
afterwards, and matching checksum index entries are pruned.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDedupe,
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
	dedupeCmd.Flags().String("mode", "hash", "grouping mode: hash or title")
	dedupeCmd.Flags().Bool("dry-run", false, "plan and report without deleting")
	dedupeCmd.Flags().Bool("keep-files", false, "remove catalog rows but leave files on disk")
	viper.BindPFlag("dedupe.mode", dedupeCmd.Flags().Lookup("mode"))
	viper.BindPFlag("dedupe.dry-run", dedupeCmd.Flags().Lookup("dry-run"))
	viper.BindPFlag("dedupe.keep-files", dedupeCmd.Flags().Lookup("keep-files"))
}

func runDedupe(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	ids, err := parseIDArgs(args)
	if err != nil {
		return err
	}

	mode, err := dupes.ParseMode(viper.GetString("dedupe.mode"))
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	plan, err := dupes.NewPlanner(db).Plan(ids, mode)
	if err != nil {
		return err
	}

	executor := dupes.NewExecutor(&dupes.ExecutorConfig{
		Store:     db,
		IndexDir:  viper.GetString("index-dir"),
		KeepFiles: viper.GetBool("dedupe.keep-files"),
		DryRun:    viper.GetBool("dedupe.dry-run"),
		Logger:    logger,
	})

	result, err := executor.Execute(plan)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

// printResult renders an execution result for both dedupe and files rm
func printResult(result *dupes.Result) {
	for _, item := range result.Deleted {
		if item.ID != 0 {
			fmt.Printf("deleted  [%d] %s\n", item.ID, item.Path)
		} else {
			fmt.Printf("deleted  %s\n", item.Path)
		}
	}
	for _, blocked := range result.Blocked {
		if blocked.ID != 0 {
			fmt.Printf("blocked  [%d] %s\n", blocked.ID, blocked.Reason)
		} else {
			fmt.Printf("blocked  %s: %s\n", blocked.Path, blocked.Reason)
		}
	}
	for _, itemErr := range result.Errors {
		util.ErrorLog("failed: %s: %s", itemErr.Path, itemErr.Error)
	}

	fmt.Printf("\n%d deleted, %d blocked, %d errors, %s freed\n",
		len(result.Deleted), len(result.Blocked), len(result.Errors),
		humanize.Bytes(uint64(result.BytesFreed)))
}
