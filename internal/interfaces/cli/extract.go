package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MeasureLink/internal/application/extraction"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

type extractOptions struct {
	simplify bool
	pretty   bool
	jsonl    bool
	outPath  string
}

func newExtractCmd(root *RootOptions, factory ExtractorFactory) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract measurements from a file or stdin",
		Long: "Reads text from the given file (or stdin when the argument is omitted\n" +
			"or \"-\") and prints one JSON document with the extracted measurements.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("input is empty")
			}

			extractor, err := factory(root)
			if err != nil {
				return err
			}
			extractions, err := extractor.Extract(cmd.Context(), text)
			if err != nil {
				return err
			}

			out, closer, err := openOutput(cmd, opts.outPath)
			if err != nil {
				return err
			}
			defer closer()

			return writeExtractions(out, extractions, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.simplify, "simplify", false, "emit the compact projection instead of full records")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().BoolVar(&opts.jsonl, "jsonl", false, "emit one JSON document per sentence")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "write output to file instead of stdout")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// writeExtractions serializes the result in the requested shape: a single
// array document by default, one document per sentence with --jsonl.
func writeExtractions(w io.Writer, extractions []*mtypes.Extraction, opts *extractOptions) error {
	enc := json.NewEncoder(w)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}

	if opts.jsonl {
		for _, e := range extractions {
			if err := enc.Encode(projection(e, opts.simplify)); err != nil {
				return err
			}
		}
		return nil
	}

	docs := make([]interface{}, 0, len(extractions))
	for _, e := range extractions {
		docs = append(docs, projection(e, opts.simplify))
	}
	return enc.Encode(docs)
}

func projection(e *mtypes.Extraction, simplify bool) interface{} {
	if !simplify {
		return e
	}
	return struct {
		SentenceIndex int                  `json:"sentenceIndex"`
		Sentence      string               `json:"sentence"`
		Measurements  []*mtypes.Simplified `json:"measurements"`
	}{e.SentenceIndex, e.Sentence, extraction.SimplifyExtraction(e)}
}
