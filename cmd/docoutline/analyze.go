package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docoutline/internal/oracle"
	"github.com/dgallion1/docoutline/internal/pipeline"
)

var (
	analyzeFormat string
	analyzeOracle string
	analyzeOut    string
	analyzeFull   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a document and print its outline",
	Long: `Analyze loads a document, runs the structure passes and prints the
analysis result. With --full the pipeline report and the chunk export are
included alongside the result.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "json", "output format: json or yaml")
	analyzeCmd.Flags().StringVar(&analyzeOracle, "oracle", "", "oracle provider: none, claude or openai (default from config)")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "write output to this file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeFull, "full", false, "include the pipeline report and chunks")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeFormat != "json" && analyzeFormat != "yaml" {
		return fmt.Errorf("unknown format %q (want json or yaml)", analyzeFormat)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzeOracle != "" {
		cfg.OracleProvider = analyzeOracle
	}
	if err := cfg.ValidateOracle(); err != nil {
		return err
	}

	log := newLogger()
	judge, err := oracle.New(oracle.Config{
		Provider:       cfg.OracleProvider,
		AnthropicKey:   cfg.AnthropicAPIKey,
		AnthropicModel: cfg.AnthropicModel,
		OpenAIKey:      cfg.OpenAIAPIKey,
		OpenAIBaseURL:  cfg.OpenAIBaseURL,
		OpenAIModel:    cfg.OpenAIModel,
		Timeout:        cfg.OracleTimeout,
	}, nil, log)
	if err != nil {
		return err
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	w := pipeline.NewWorker(judge, nil, log, pipeline.WorkerSettings(cfg))
	out, err := w.Analyze(cmd.Context(), filepath.Base(path), data, judge != nil)
	if err != nil {
		return err
	}

	var v any = out.Result
	if analyzeFull {
		v = out
	}
	body, err := encode(v, analyzeFormat)
	if err != nil {
		return err
	}

	if analyzeOut == "" {
		_, err = cmd.OutOrStdout().Write(body)
		return err
	}
	if err := os.WriteFile(analyzeOut, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", analyzeOut, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d sections, %d oracle calls)\n",
		analyzeOut, out.Report.Tree.TotalSections, out.Report.GrayZone.OracleCalls)
	return nil
}

// encode renders v as indented JSON, or as YAML carrying the same field
// names and order as the JSON form.
func encode(v any, format string) ([]byte, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	if format == "json" {
		return append(raw, '\n'), nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("convert to yaml: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// blockStyle drops the flow and quoting styles the JSON source implies.
// The encoder still quotes strings that would otherwise read as numbers or
// booleans.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
