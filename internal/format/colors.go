package format

import (
	"github.com/fatih/color"
)

var (
	Green  = color.New(color.FgGreen).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc()
)

// DisableColors turns off ANSI output for every formatter in the process.
func DisableColors() {
	color.NoColor = true
}

// ColorClaimed renders an already formatted amount depending on whether it
// is still waiting to be claimed.
func ColorClaimed(amount string, claimed bool) string {
	if claimed {
		return Green(amount)
	}
	return Yellow(amount)
}
