package main

import (
	"context"
	"fmt"

	"shelfkeeper/internal/scan"
	"shelfkeeper/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "Scan a directory and import audiobook files into the catalog",
	Long: `Scan walks a directory tree for audiobook files, extracts embedded
metadata (title, author, narrator, duration) and imports them into the
catalog. Files already cataloged with an unchanged size are skipped.
Content hashes are not computed here; run 'shelfkeeper hash' afterwards.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Int("concurrency", 4, "number of concurrent workers")
	scanCmd.Flags().StringSlice("extensions", nil, "additional file extensions to scan")
	viper.BindPFlag("scan.concurrency", scanCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("scan.extensions", scanCmd.Flags().Lookup("extensions"))
}

func runScan(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	root := viper.GetString("library")
	if len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		return fmt.Errorf("no directory given and no library root configured")
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	scanner := scan.New(&scan.Config{
		Store:          db,
		AdditionalExts: viper.GetStringSlice("scan.extensions"),
		Concurrency:    viper.GetInt("scan.concurrency"),
		Logger:         logger,
	})

	result, err := scanner.Scan(context.Background(), root)
	if err != nil {
		return err
	}

	if len(result.Errors) > 0 {
		util.WarnLog("%d files failed to import", len(result.Errors))
	}

	return nil
}
