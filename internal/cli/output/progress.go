package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressBar shows how many of a fixed number of operations completed.
type ProgressBar struct {
	w       io.Writer
	title   string
	total   int64
	current int64
	width   int
	mu      sync.Mutex
}

// NewProgressBar creates a progress bar for total operations.
func NewProgressBar(w io.Writer, title string, total int64) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 40,
	}
}

// Increment adds to current progress. Safe for concurrent use.
func (p *ProgressBar) Increment(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	p.render()
}

// Current returns the completed count.
func (p *ProgressBar) Current() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish ends the progress line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d", p.title, p.current)
		return
	}

	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}

	filled := int(float64(p.width) * percent)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", p.width-filled)

	fmt.Fprintf(p.w, "\r%s [%s] %3.0f%% (%d/%d)", p.title, bar, percent*100, p.current, p.total)
}
