package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var asJSON bool
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past extractions",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, journal, err := newManager()
			if err != nil {
				return err
			}
			defer journal.Close()

			records, err := mgr.History(limit)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(records) == 0 {
				fmt.Printf("\n%s No extractions yet\n", dim("○"))
				return nil
			}

			for _, rec := range records {
				fmt.Printf("%s %s %s %s\n",
					statusColor(rec.Status), bold(rec.Archive), dim("→"), rec.Destination)

				detail := fmt.Sprintf("  %s", dim(humanize.Time(rec.StartedAt)))
				if rec.Format != "" {
					detail += fmt.Sprintf(", %s", rec.Format)
				}
				if rec.Entries > 0 {
					detail += fmt.Sprintf(", %d entries, %s", rec.Entries, bytes(rec.Bytes))
				}
				if d := rec.Duration(); d > 0 {
					detail += fmt.Sprintf(", took %s", d.Round(1e6))
				}
				fmt.Println(detail)
				if rec.Error != "" {
					fmt.Printf("  %s %s\n", red("error:"), rec.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to show (0 for all)")
	return cmd
}
