package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teamcutter/unarc/internal/domain"
)

func newListCmd() *cobra.Command {
	var formatName string

	cmd := &cobra.Command{
		Use:   "list <archive>",
		Short: "List the entries of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, journal, err := newManager()
			if err != nil {
				return err
			}
			defer journal.Close()

			f, err := parseFormat(formatName)
			if err != nil {
				return err
			}

			entries, err := mgr.List(args[0], f)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Printf("\n%s %s is empty\n", dim("○"), args[0])
				return nil
			}

			var total int64
			for _, e := range entries {
				total += e.Size
				fmt.Println(entryLine(e))
			}
			fmt.Printf("\n%d entries, %s\n", len(entries), bytes(total))
			return nil
		},
	}

	cmd.Flags().StringVar(&formatName, "format", "", "Archive format (default: detect)")
	return cmd
}

func entryLine(e domain.Entry) string {
	mode := e.Mode.String()
	switch e.Kind {
	case domain.EntryDir:
		return fmt.Sprintf(" %s %9s  %s", dim(mode), "", cyan(e.Name))
	case domain.EntrySymlink:
		return fmt.Sprintf(" %s %9s  %s %s %s", dim(mode), "", e.Name, dim("->"), e.Linkname)
	case domain.EntryHardlink:
		return fmt.Sprintf(" %s %9s  %s %s %s", dim(mode), "", e.Name, dim("=>"), e.Linkname)
	default:
		return fmt.Sprintf(" %s %9s  %s", dim(mode), bytes(e.Size), e.Name)
	}
}
