package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/format"
)

func newDetectCmd() *cobra.Command {
	var sniff bool

	cmd := &cobra.Command{
		Use:   "detect <name-or-url>...",
		Short: "Show which format a file name or URL maps to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unknown := 0
			for _, arg := range args {
				var f domain.Format
				var err error
				if strings.Contains(arg, "://") {
					f, err = format.FromURL(arg)
				} else {
					f, err = format.FromPath(arg)
				}

				line := fmt.Sprintf("%s %s", green("✓"), arg)
				if err != nil {
					unknown++
					line = fmt.Sprintf("%s %s %s", red("✗"), arg, dim("(unsupported)"))
				} else {
					line += " " + bold(f.Name())
				}

				if sniff {
					line += sniffNote(arg, f)
				}
				fmt.Println(line)
			}

			if unknown > 0 {
				return fmt.Errorf("%d of %d name(s) not recognised", unknown, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&sniff, "sniff", false, "Also inspect the leading bytes of local files")
	return cmd
}

func sniffNote(p string, named domain.Format) string {
	sniffed, ok, err := format.Sniff(p)
	switch {
	case err != nil:
		return ""
	case !ok:
		return " " + dim("(content: unknown)")
	case named != domain.FormatUnknown && sniffed != named:
		return " " + yellow(fmt.Sprintf("(content looks like %s)", sniffed.Name()))
	default:
		return " " + dim(fmt.Sprintf("(content: %s)", sniffed.Name()))
	}
}
