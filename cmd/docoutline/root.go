package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docoutline/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docoutline",
	Short: "Infer the heading outline and logical sub-tables of a document",
	Long: `docoutline reads an office document (docx, md, html, txt, csv, pdf) and
reconstructs its structure:

  - heading candidates scored from styles, outline levels, numbering and shape
  - logical sub-tables carved out of physical tables
  - borderline headings re-judged from their neighborhood
  - remaining ambiguity escalated to an optional language-model judge
  - a section tree assembled from the final headings`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: $"+config.FileEnv+")",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log pipeline progress to stderr",
	)

	rootCmd.AddCommand(analyzeCmd, validateCmd, schemaCmd)
}

func loadConfig() (config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load()
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
