package main

import (
	"fmt"
	"strconv"
	"strings"

	"shelfkeeper/internal/report"
	"shelfkeeper/internal/store"
	"shelfkeeper/internal/util"

	"github.com/spf13/viper"
)

// applyLogFlags sets log verbosity from the global flags
func applyLogFlags() {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
}

// openStore opens the catalog database named by configuration
func openStore() (*store.Store, error) {
	dbPath := viper.GetString("db")
	util.DebugLog("Opening database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// newEventLogger creates the JSONL audit logger, falling back to a no-op
// logger when the artifacts directory is unwritable
func newEventLogger() *report.EventLogger {
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger("artifacts", logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}

	if logger.Path() != "" {
		util.DebugLog("Event log: %s", logger.Path())
	}

	return logger
}

// shortKey abbreviates a hex checksum for listings
func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}

// parseIDArgs parses id arguments, accepting both "1 2 3" and "1,2,3"
func parseIDArgs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, piece := range strings.Split(arg, ",") {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			id, err := strconv.ParseInt(piece, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid record id %q", piece)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
