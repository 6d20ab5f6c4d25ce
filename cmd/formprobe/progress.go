package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// fillProgress renders a live progress bar over the field probes of a run,
// keeping a passed/failed tally in the description.
type fillProgress struct {
	bar    *progressbar.ProgressBar
	passed int
	failed int
}

func newFillProgress(total int) *fillProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(describeFills(0, 0)),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &fillProgress{bar: bar}
}

func describeFills(passed, failed int) string {
	return color.CyanString("Probing fields: ") +
		color.GreenString("[passed: %d", passed) +
		" | " +
		color.RedString("failed: %d]", failed)
}

// Record advances the bar by one field attempt.
func (p *fillProgress) Record(success bool) {
	if success {
		p.passed++
	} else {
		p.failed++
	}
	p.bar.Set(p.passed + p.failed)
	p.bar.Describe(describeFills(p.passed, p.failed))
}

// Finish completes the bar.
func (p *fillProgress) Finish() {
	p.bar.Finish()
}
