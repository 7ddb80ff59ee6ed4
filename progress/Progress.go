// Package progress prints a training progress bar to the terminal
// window
package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Bar is a terminal progress bar tracking environment steps taken
// during training. The bar must be managed manually: call Add() as
// steps complete and Display() whenever the bar should be redrawn.
//
// Bar does not use concurrency.
type Bar struct {
	width      float64
	totalSteps float64
	steps      float64
	note       string
	bar        strings.Builder
	startTime  time.Time
}

// NewBar returns a new Bar that is width characters wide and reaches
// 100% after totalSteps steps
func NewBar(width, totalSteps int) *Bar {
	return &Bar{
		width:      float64(width),
		totalSteps: float64(totalSteps),
		steps:      0,
		startTime:  time.Now(),
	}
}

// Add records n completed steps
func (b *Bar) Add(n int) {
	b.steps += float64(n)
	if b.steps > b.totalSteps {
		b.steps = b.totalSteps
	}
}

// SetNote sets a short status string appended to the bar, such as the
// latest evaluation return
func (b *Bar) SetNote(note string) {
	b.note = note
}

// Display redraws the progress bar on the screen
func (b *Bar) Display() {
	b.bar.Reset()
	b.bar.Write([]byte("|"))

	currentProg := b.steps / b.totalSteps * b.width
	for i := 0.0; i < currentProg; i++ {
		b.bar.Write([]byte("█"))
	}
	for i := currentProg; i < b.width; i++ {
		b.bar.Write([]byte(" "))
	}
	b.bar.Write([]byte(fmt.Sprintf("| [%v/%v steps | elapsed: %v",
		humanize.Comma(int64(b.steps)), humanize.Comma(int64(b.totalSteps)),
		time.Since(b.startTime).Truncate(time.Second))))
	if b.note != "" {
		b.bar.Write([]byte(" | " + b.note))
	}
	b.bar.Write([]byte("]"))

	fmt.Printf("\n\033[1A\033[K%v", b.bar.String())
}

// Finish redraws the bar one last time and moves to the next line
func (b *Bar) Finish() {
	b.Display()
	fmt.Println()
}
