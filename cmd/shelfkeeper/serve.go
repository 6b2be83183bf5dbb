package main

import (
	"context"
	"os/signal"
	"syscall"

	"shelfkeeper/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog and duplicate management REST API",
	Long: `Serve starts an HTTP server exposing the catalog listing and the
duplicate detection and deletion endpoints under /api. The server runs
until interrupted and shuts down gracefully.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "listen address")
	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	srv := server.New(db, server.Config{
		Addr:        viper.GetString("serve.addr"),
		IndexDir:    viper.GetString("index-dir"),
		LibraryRoot: viper.GetString("library"),
		SourcesRoot: viper.GetString("sources"),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}
