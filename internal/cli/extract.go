package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prensalab/veedor/internal/extract"
	"github.com/prensalab/veedor/internal/extract/pattern"
	"github.com/spf13/cobra"
)

var extractJSON bool

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Run only the attribution engine on plain text",
	Long: `Extract runs the attribution extraction engine over plain article
text without fetching, banner detection or classification. Text comes
from the named file, or from stdin when the argument is "-" or missing.

Example:
  veedor extract articulo.txt
  cat articulo.txt | veedor extract
  veedor extract articulo.txt --strategy proximity --out-json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&strategy, "strategy", "role", "attribution strategy (role, proximity)")
	extractCmd.Flags().StringVar(&matchMode, "match-mode", "both", "taxonomy matching (surface, lemma, both)")
	extractCmd.Flags().IntVar(&maxDistance, "max-distance", 100, "proximity threshold in characters")
	extractCmd.Flags().BoolVar(&extractJSON, "out-json", false, "print results as JSON instead of text")
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := readExtractInput(args)
	if err != nil {
		return err
	}

	strat, err := extract.StrategyFromString(strategy)
	if err != nil {
		return err
	}
	mode, err := pattern.ModeFromString(matchMode)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	extractor := extract.New(extract.Options{
		Strategy:    strat,
		MatchMode:   mode,
		MaxDistance: maxDistance,
	})
	if err := extractor.Parse(ctx, text); err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}

	reporters := extractor.Reporters()
	sources := extractor.Sources()
	entities := extractor.Entities()

	if extractJSON {
		out := struct {
			Strategy  string   `json:"strategy"`
			Reporters []string `json:"reporters"`
			Sources   []string `json:"sources"`
			Entities  []string `json:"entities"`
		}{extractor.StrategyName(), reporters, sources, entities}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printNameList("Reporters", reporters)
	printNameList("Sources", sources)
	printNameList("Entities", entities)
	return nil
}

func readExtractInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}

func printNameList(header string, names []string) {
	fmt.Printf("%s (%d):\n", header, len(names))
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println()
}
