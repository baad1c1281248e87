package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Progress draws a single-line bar for a run over a known number of items.
// It is safe for concurrent use.
type Progress struct {
	mu      sync.Mutex
	total   int
	current int
	started time.Time
	writer  io.Writer
	now     func() time.Time
}

// NewProgress creates a progress bar that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgress(w io.Writer) *Progress {
	if w == nil {
		w = os.Stderr
	}
	return &Progress{
		writer: w,
		now:    time.Now,
	}
}

// Start initializes the bar with the total number of items.
func (p *Progress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.started = p.now()

	p.render()
}

// Update sets the number of items done.
func (p *Progress) Update(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = min(done, p.total)
	p.render()
}

// Finish ends the bar line. The bar is left at the last reported count so
// an interrupted run shows where it stopped.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total > 0 {
		fmt.Fprintln(p.writer)
	}
}

func (p *Progress) render() {
	if p.total == 0 {
		return
	}

	const barWidth = 30
	filled := barWidth * p.current / p.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	var rate float64
	if elapsed := p.now().Sub(p.started).Seconds(); elapsed > 0 {
		rate = float64(p.current) / elapsed
	}

	fmt.Fprintf(p.writer, "\rProcessing: [%s] %d/%d items (%.2f items/s)",
		bar, p.current, p.total, rate)
}
