// Package report implements the report command: query stored results above
// a risk threshold and print them as a table.
package report

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/scamintel/cmd/common"
	"github.com/jonesrussell/scamintel/internal/storage"
)

const (
	defaultMinScore = 2
	defaultLimit    = 25
	queryTimeout    = 30 * time.Second

	// maxCellItems caps how many extracted values are listed per cell.
	maxCellItems = 3
)

// Command returns the report command.
func Command() *cobra.Command {
	var (
		minScore int
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "List stored pages at or above a suspicion score",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
			defer cancel()

			store, err := storage.NewMongoStore(ctx, storage.Config{
				URI:           deps.Config.Storage.URI,
				Database:      deps.Config.Storage.Database,
				RetryAttempts: deps.Config.Storage.RetryAttempts,
				RetryBackoff:  deps.Config.Storage.RetryBackoff,
			}, deps.Logger)
			if err != nil {
				return fmt.Errorf("connect storage: %w", err)
			}
			defer func() { _ = store.Disconnect(ctx) }()

			results, err := store.FindHighRisk(ctx, minScore, limit)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Printf("No results with score >= %d\n", minScore)
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Score", "URL", "Domain", "Emails", "Wallets", "Fetched"})

			for _, r := range results {
				wallets := make([]string, 0, len(r.Extractions.CryptoWallets))
				for _, w := range r.Extractions.CryptoWallets {
					wallets = append(wallets, w.Type+":"+w.Address)
				}

				t.AppendRow(table.Row{
					r.SuspiciousScore,
					r.URL,
					r.Domain,
					joinCapped(r.Extractions.Emails),
					joinCapped(wallets),
					r.FetchedAt.Format(time.RFC3339),
				})
			}

			t.Render()

			return nil
		},
	}

	cmd.Flags().IntVar(&minScore, "min-score", defaultMinScore, "minimum suspicious score")
	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "maximum rows to return (0 = no limit)")

	return cmd
}

// joinCapped joins up to maxCellItems values, appending an ellipsis marker
// when more were present.
func joinCapped(values []string) string {
	if len(values) <= maxCellItems {
		return strings.Join(values, ", ")
	}

	return strings.Join(values[:maxCellItems], ", ") +
		fmt.Sprintf(" (+%d more)", len(values)-maxCellItems)
}
