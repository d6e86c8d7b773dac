package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teamcutter/unarc/internal/manager"
)

func newExtractCmd() *cobra.Command {
	var noStrip, noProgress bool
	var formatName, rawURL string

	cmd := &cobra.Command{
		Use:   "extract <archive> <dest>",
		Short: "Extract an archive into a new directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, cfg, journal, err := newManager()
			if err != nil {
				return err
			}
			defer journal.Close()

			override := cfg.Format
			if cmd.Flags().Changed("format") {
				override = formatName
			}
			f, err := parseFormat(override)
			if err != nil {
				return err
			}

			rec, err := mgr.Extract(cmd.Context(), manager.Request{
				Archive:     args[0],
				Destination: args[1],
				URL:         rawURL,
				Format:      f,
				StripRoot:   cfg.StripRootDir && !noStrip,
				Progress:    progressFor(cfg.Progress && !noProgress, args[0]),
			})
			if err != nil {
				fmt.Printf("%s %s\n", red("✗"), err)
				return fmt.Errorf("failed to extract %s", args[0])
			}

			fmt.Printf("%s %s %s\n  %s %s\n  %s %d entries, %s\n",
				green("✓"), bold(args[0]), dim("("+rec.Format+")"),
				cyan("path:"), rec.Destination,
				cyan("size:"), rec.Entries, bytes(rec.Bytes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noStrip, "no-strip", false, "Keep a single top-level directory")
	cmd.Flags().StringVar(&formatName, "format", "", "Archive format, e.g. tar.gz or zip (default: detect)")
	cmd.Flags().StringVar(&rawURL, "url", "", "URL the archive was downloaded from, used to detect the format")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Hide the progress bar")
	return cmd
}
