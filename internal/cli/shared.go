package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/format"
	"github.com/teamcutter/unarc/internal/progress"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func withSpinner(ctx context.Context, desc string) (stop func()) {
	spinner := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWriter(os.Stderr),
	)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				spinner.Finish()
				return
			default:
				spinner.Add(1)
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()
	return func() {
		close(done)
		spinner.Finish()
	}
}

// progressFor returns a byte progress bar on stderr, or nil when disabled.
func progressFor(enabled bool, archive string) domain.ProgressSink {
	if !enabled {
		return nil
	}
	return progress.NewBar(fmt.Sprintf("Extracting %s", bold(format.Stem(archive))), os.Stderr)
}

func parseFormat(s string) (domain.Format, error) {
	if s == "" || s == "auto" {
		return domain.FormatUnknown, nil
	}
	return format.Parse(s)
}

func statusColor(s domain.Status) string {
	switch s {
	case domain.StatusCommitted:
		return green(string(s))
	case domain.StatusFailed:
		return red(string(s))
	case domain.StatusAbandoned:
		return yellow(string(s))
	default:
		return dim(string(s))
	}
}

func bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
