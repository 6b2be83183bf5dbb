package main

import (
	"fmt"

	"shelfkeeper/internal/chkindex"
	"shelfkeeper/internal/dupes"
	"shelfkeeper/internal/util"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Filesystem-level duplicate operations via the checksum index",
}

var filesDupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "List duplicate files found by the checksum index",
	Long: `Lists groups of files sharing a checksum in the flat index of the
chosen tree. File existence and sizes are checked live; a stale index
entry whose file is gone shows as missing and is excluded from
reclaimable-space totals.`,
	RunE: runFilesDupes,
}

var filesRmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Delete duplicate files by path",
	Long: `Rm deletes the requested files after checking them against the
checksum index of the chosen tree. Paths absent from the index are
blocked, and the last surviving copy in each checksum group is
protected. Library-tree deletions also remove the matching catalog row;
sources-tree deletions never touch the catalog.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFilesRm,
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesDupesCmd)
	filesCmd.AddCommand(filesRmCmd)

	filesDupesCmd.Flags().String("type", "both", "tree to inspect: sources, library or both")
	filesRmCmd.Flags().String("type", "sources", "tree the paths belong to: sources or library")
	filesRmCmd.Flags().Bool("dry-run", false, "plan and report without deleting")
	viper.BindPFlag("files.dupes.type", filesDupesCmd.Flags().Lookup("type"))
	viper.BindPFlag("files.rm.type", filesRmCmd.Flags().Lookup("type"))
	viper.BindPFlag("files.rm.dry-run", filesRmCmd.Flags().Lookup("dry-run"))
}

func runFilesDupes(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	treeArg := viper.GetString("files.dupes.type")
	var trees []chkindex.Tree
	if treeArg == "both" {
		trees = []chkindex.Tree{chkindex.TreeSources, chkindex.TreeLibrary}
	} else {
		tree, err := chkindex.ParseTree(treeArg)
		if err != nil {
			return err
		}
		trees = []chkindex.Tree{tree}
	}

	indexDir := viper.GetString("index-dir")

	for _, tree := range trees {
		report, err := chkindex.Report(indexDir, tree)
		if err != nil {
			return err
		}

		fmt.Printf("\n=== %s ===\n", tree)
		if !report.Exists {
			fmt.Printf("no index found; run 'shelfkeeper index %s' first\n", tree)
			continue
		}

		fmt.Printf("%d files indexed, %d unique checksums, %d duplicate groups\n",
			report.TotalFiles, report.UniqueChecksums, len(report.DuplicateGroups))

		for _, group := range report.DuplicateGroups {
			fmt.Printf("\n%d copies  %s  (%s reclaimable)\n",
				len(group.Files), shortKey(group.Checksum), humanize.Bytes(uint64(group.WastedSpace)))
			for i, file := range group.Files {
				marker := " "
				if i == group.KeeperIdx {
					marker = "*"
				}
				if !file.Exists {
					fmt.Printf("  %s (missing) %s\n", marker, file.Path)
					continue
				}
				fmt.Printf("  %s %8s  %s\n", marker, humanize.Bytes(uint64(file.Size)), file.Path)
			}
		}
	}

	return nil
}

func runFilesRm(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	tree, err := chkindex.ParseTree(viper.GetString("files.rm.type"))
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

	indexDir := viper.GetString("index-dir")

	plan, err := dupes.NewPlanner(db).PlanPaths(args, indexDir, tree)
	if err != nil {
		return err
	}

	if viper.GetBool("files.rm.dry-run") {
		util.InfoLog("Dry run: nothing will be deleted")
	}

	executor := dupes.NewExecutor(&dupes.ExecutorConfig{
		Store:    db,
		IndexDir: indexDir,
		DryRun:   viper.GetBool("files.rm.dry-run"),
		Logger:   logger,
	})

	result, err := executor.ExecutePaths(plan)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}
