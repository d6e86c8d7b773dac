package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Bar adapts a terminal progress bar to domain.ProgressSink.
type Bar struct {
	bar *progressbar.ProgressBar
}

func NewBar(description string, w io.Writer) *Bar {
	if w == nil {
		w = os.Stderr
	}
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() {
			io.WriteString(w, "\n")
		}),
	)
	return &Bar{bar: bar}
}

func (b *Bar) SetTotal(total int64) {
	b.bar.ChangeMax64(total)
}

func (b *Bar) Increment(n int64) {
	_ = b.bar.Add64(n)
}

func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

func (b *Bar) Max() int64 {
	return b.bar.GetMax64()
}

func (b *Bar) IsFinished() bool {
	return b.bar.IsFinished()
}
