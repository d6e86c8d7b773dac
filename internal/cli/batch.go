package cli

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"github.com/teamcutter/unarc/internal/format"
	"github.com/teamcutter/unarc/internal/manager"
	"golang.org/x/sync/errgroup"
)

func newBatchCmd() *cobra.Command {
	var noStrip bool
	var parallel int

	cmd := &cobra.Command{
		Use:   "batch <dest-root> <archive>...",
		Short: "Extract several archives in parallel, each into <dest-root>/<name>",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, cfg, journal, err := newManager()
			if err != nil {
				return err
			}
			defer journal.Close()

			root, archives := args[0], args[1:]
			limit := cfg.Parallelism()
			if parallel > 0 {
				limit = parallel
			}

			ctx := cmd.Context()
			stop := withSpinner(ctx, fmt.Sprintf("Extracting %d archives...", len(archives)))

			output := make([]string, len(archives))
			var errs []error
			mu := &sync.Mutex{}

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(min(len(archives), limit))

			for i, archive := range archives {
				i, archive := i, archive
				g.Go(func() error {
					dest := filepath.Join(root, format.Stem(archive))
					rec, err := mgr.Extract(gctx, manager.Request{
						Archive:     archive,
						Destination: dest,
						StripRoot:   cfg.StripRootDir && !noStrip,
					})
					if err != nil {
						mu.Lock()
						errs = append(errs, fmt.Errorf("%s: %v", archive, err))
						mu.Unlock()
						output[i] = fmt.Sprintf("%s %s", red("✗"), archive)
						return nil
					}
					output[i] = fmt.Sprintf("%s %s %s %s",
						green("✓"), bold(archive), dim("→"), rec.Destination)
					return nil
				})
			}
			_ = g.Wait()
			stop()

			for _, line := range output {
				fmt.Println(line)
			}

			if len(errs) > 0 {
				fmt.Println()
				for _, e := range errs {
					fmt.Printf("%s %s\n", red("✗"), e)
				}
				return fmt.Errorf("failed to extract %d archive(s)", len(errs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noStrip, "no-strip", false, "Keep a single top-level directory")
	cmd.Flags().IntVarP(&parallel, "parallel", "j", 0, "Maximum concurrent extractions (default: max_parallel)")
	return cmd
}
