package main

import (
	"fmt"
	"os"

	"shelfkeeper/internal/util"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "shelfkeeper",
		Short: "Audiobook library keeper - find and safely remove duplicate audiobooks",
		Long: `shelfkeeper manages a personal audiobook library backed by a SQLite
catalog. It detects duplicate copies of the same work through three
independent signals (content hash, normalized title/author/duration, and
a filesystem checksum index) and deletes redundant copies under a hard
guarantee: the last surviving copy of a work is never removed.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./shelfkeeper.yaml)")
	rootCmd.PersistentFlags().String("db", "shelfkeeper.db", "catalog database file")
	rootCmd.PersistentFlags().String("library", "", "library root directory")
	rootCmd.PersistentFlags().String("sources", "", "sources root directory")
	rootCmd.PersistentFlags().String("index-dir", "checksums", "checksum index directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("library", rootCmd.PersistentFlags().Lookup("library"))
	viper.BindPFlag("sources", rootCmd.PersistentFlags().Lookup("sources"))
	viper.BindPFlag("index-dir", rootCmd.PersistentFlags().Lookup("index-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("shelfkeeper")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SHELFKEEPER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
