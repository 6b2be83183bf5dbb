package main

import (
	"context"

	"shelfkeeper/internal/scan"
	"shelfkeeper/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Compute content hashes for cataloged files that lack one",
	Long: `Hash reads every catalog record without a content hash, computes the
SHA-256 of the full file content and stores it. Duplicate detection in
hash mode only considers records that have been hashed.`,
	RunE: runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)
	hashCmd.Flags().Int("concurrency", 4, "number of concurrent workers")
	viper.BindPFlag("hash.concurrency", hashCmd.Flags().Lookup("concurrency"))
}

func runHash(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	hasher := scan.NewHasher(&scan.HasherConfig{
		Store:       db,
		Concurrency: viper.GetInt("hash.concurrency"),
		Logger:      logger,
	})

	result, err := hasher.Run(context.Background())
	if err != nil {
		return err
	}

	if len(result.Errors) > 0 {
		util.WarnLog("%d files failed to hash", len(result.Errors))
	}

	return nil
}
