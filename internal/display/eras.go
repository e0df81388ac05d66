package display

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/dmagro/staking-payouts/internal/format"
	"github.com/dmagro/staking-payouts/internal/payout"
)

// EraTableFormatter prints one row per era of a payout result.
type EraTableFormatter struct {
	Token format.Token
	Eras  []payout.EraSummary
}

func (f *EraTableFormatter) Format(w io.Writer) error {
	if len(f.Eras) == 0 {
		_, err := fmt.Fprintln(w, format.Dim("No eras with payouts."))
		return err
	}

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Era", "Payouts", "Claimed", "Unclaimed", "Total").
		WithHeaderFormatter(headerFmt).
		WithWriter(w)

	for _, e := range f.Eras {
		era := "-"
		if e.Era != nil {
			era = strconv.FormatUint(uint64(*e.Era), 10)
		}
		tbl.AddRow(
			era,
			e.Count,
			format.Amount(e.Claimed, f.Token),
			format.Amount(e.Unclaimed, f.Token),
			format.Amount(e.Total(), f.Token),
		)
	}

	tbl.Print()
	_, err := fmt.Fprintln(w)
	return err
}
