package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/prensalab/veedor/internal/model"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyURL   string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past audits from the history database",
	Long: `History lists stored audits, newest first. Audits are recorded
automatically unless a command ran with --no-store.

Example:
  veedor history
  veedor history --limit 50
  veedor history --url https://elpais.com/some-article.html`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum audits to list")
	historyCmd.Flags().StringVar(&historyURL, "url", "", "list only audits of this article URL")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := model.DefaultConfig()

	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = s.Close() }()

	entries, err := s.Recent(historyLimit)
	if historyURL != "" {
		entries, err = s.ByURL(historyURL)
	}
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No stored audits.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FECHA\tCATEGORÍA\tMEDIO\tARTÍCULO")
	for _, e := range entries {
		outlet := e.Outlet
		if outlet == "" {
			outlet = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Category, outlet, e.Subject)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	count, err := s.Count()
	if err == nil && count > len(entries) {
		fmt.Printf("\n(%d of %d stored audits shown)\n", len(entries), count)
	}

	return nil
}
