package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	total, err := db.CountBooks()
	if err != nil {
		return err
	}

	hashed, err := db.GetBooksWithHash()
	if err != nil {
		return err
	}

	var totalSize int64
	books, err := db.GetAllBooks()
	if err != nil {
		return err
	}
	for _, book := range books {
		totalSize += book.FileSize
	}

	fmt.Printf("Catalog:      %d audiobooks (%s)\n", total, humanize.Bytes(uint64(totalSize)))
	fmt.Printf("Hashed:       %d of %d\n", len(hashed), total)
	if total > len(hashed) {
		fmt.Printf("              run 'shelfkeeper hash' to hash the remaining %d\n", total-len(hashed))
	}

	if err := db.CheckIntegrity(); err != nil {
		fmt.Printf("Integrity:    FAILED (%v)\n", err)
		return err
	}
	fmt.Printf("Integrity:    ok\n")

	return nil
}
