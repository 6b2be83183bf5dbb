package main

import (
	"fmt"

	"shelfkeeper/internal/dupes"
	"shelfkeeper/internal/util"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "List duplicate groups in the catalog",
	Long: `Dupes lists groups of catalog records believed to represent the same
work. Mode 'hash' groups records with identical content hashes; mode
'title' groups records whose normalized title, author and duration
match. Each group marks the keeper that deletion would preserve.`,
	RunE: runDupes,
}

func init() {
	rootCmd.AddCommand(dupesCmd)
	dupesCmd.Flags().String("mode", "hash", "grouping mode: hash or title")
	viper.BindPFlag("dupes.mode", dupesCmd.Flags().Lookup("mode"))
}

func runDupes(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	mode, err := dupes.ParseMode(viper.GetString("dupes.mode"))
	if err != nil {
		return err
	}
	if mode == dupes.ModeChecksum {
		return fmt.Errorf("%w: checksum mode is served by 'files dupes'", util.ErrValidation)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	groups, err := dupes.NewGrouper(db).ByMode(mode)
	if err != nil {
		return err
	}

	if len(groups) == 0 {
		util.InfoLog("No duplicate groups found")
		return nil
	}

	for _, group := range groups {
		switch mode {
		case dupes.ModeHash:
			fmt.Printf("\n%d copies  %s  (%s reclaimable)\n",
				len(group.Members), shortKey(group.Key), humanize.Bytes(uint64(group.WastedSpace())))
		case dupes.ModeTitle:
			fmt.Printf("\n%d copies  %q by %s  (%s reclaimable)\n",
				len(group.Members), group.Title, group.Author, humanize.Bytes(uint64(group.PotentialSavings())))
		}

		keeper := group.Keeper()
		for _, member := range group.Members {
			marker := " "
			if member.ID == keeper.ID {
				marker = "*"
			}
			fmt.Printf("  %s [%d] %-6s %8s  %s\n",
				marker, member.ID, member.Format, humanize.Bytes(uint64(member.FileSize)), member.FilePath)
		}
	}

	fmt.Printf("\n%d duplicate groups, %s reclaimable\n",
		len(groups), humanize.Bytes(uint64(dupes.TotalWasted(groups))))

	return nil
}
