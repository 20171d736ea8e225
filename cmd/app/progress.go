package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/starford/tagfile/internal/tags"
)

// progressSink renders frequency-table progress as a terminal bar. The bar
// is created lazily because the total is only known once the folder is
// listed. A nil *progressSink is a no-op.
type progressSink struct {
	w    io.Writer
	desc string
	bar  *progressbar.ProgressBar
}

func newProgressSink(w io.Writer, desc string) *progressSink {
	return &progressSink{w: w, desc: desc}
}

// Func returns the callback to hand to the tag table build.
func (p *progressSink) Func() tags.ProgressFunc {
	if p == nil {
		return nil
	}
	return func(done, total int) {
		if p.bar == nil {
			p.bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(p.w),
				progressbar.OptionSetDescription(p.desc),
				progressbar.OptionSetWidth(30),
				progressbar.OptionShowCount(),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionSetRenderBlankState(true),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.w) }),
			)
		}
		_ = p.bar.Set(done)
	}
}

// Finish completes the bar, if one was drawn.
func (p *progressSink) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
