package main

import (
	"context"
	"fmt"

	"shelfkeeper/internal/chkindex"
	"shelfkeeper/internal/scan"
	"shelfkeeper/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var indexCmd = &cobra.Command{
	Use:   "index <sources|library> [directory]",
	Short: "Generate a flat checksum index for a filesystem tree",
	Long: `Index walks a filesystem tree and writes one 'checksum|path' line per
audio file to <index-dir>/<tree>.idx. The checksum covers the first
1 MiB of each file. The resulting index feeds filesystem-level duplicate
detection ('shelfkeeper files dupes') independent of the catalog.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	tree, err := chkindex.ParseTree(args[0])
	if err != nil {
		return err
	}

	root := ""
	if len(args) > 1 {
		root = args[1]
	} else if tree == chkindex.TreeLibrary {
		root = viper.GetString("library")
	} else {
		root = viper.GetString("sources")
	}
	if root == "" {
		return fmt.Errorf("no directory given and no %s root configured", tree)
	}

	result, err := scan.NewIndexer().Build(context.Background(), root, viper.GetString("index-dir"), tree)
	if err != nil {
		return err
	}

	if len(result.Errors) > 0 {
		util.WarnLog("%d files failed to checksum", len(result.Errors))
	}
	util.SuccessLog("Indexed %d files into %s", result.FilesIndexed, result.IndexPath)

	return nil
}
