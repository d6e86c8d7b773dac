package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/teamcutter/unarc/internal/domain"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported archive formats",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Supported formats:\n\n")
			for _, f := range domain.Formats() {
				kind := "stream"
				if f.IsRandomAccess() {
					kind = "index"
				}
				fmt.Printf(" %-9s %-7s %s\n", bold(f.Name()), dim(kind), strings.Join(f.Extensions(), " "))
			}
		},
	}
}
