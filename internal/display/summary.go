package display

import (
	"fmt"
	"io"

	"github.com/dmagro/staking-payouts/internal/format"
	"github.com/dmagro/staking-payouts/internal/payout"
)

// SummaryFormatter prints the payout totals of one account.
type SummaryFormatter struct {
	AccountID     string
	Depth         int
	UnclaimedOnly bool
	Token         format.Token
	Result        *payout.Result
}

// Format writes the summary to w. In unclaimed-only mode just the unclaimed
// total is shown.
func (f *SummaryFormatter) Format(w io.Writer) error {
	r := f.Result

	if _, err := fmt.Fprintf(w, "Account %s received %d payouts for %d era(s).\n",
		format.Bold(f.AccountID), r.Count, f.Depth); err != nil {
		return err
	}

	unclaimed := format.ColorClaimed(format.Amount(r.Unclaimed, f.Token), false)
	if f.UnclaimedOnly {
		_, err := fmt.Fprintf(w, "Total payout unclaimed is %s\n", unclaimed)
		return err
	}

	claimed := format.ColorClaimed(format.Amount(r.Claimed, f.Token), true)
	_, err := fmt.Fprintf(w, "Total payout is %s\n%s has been claimed.\nStill %s to claim.\n",
		format.Bold(format.Amount(r.Total, f.Token)), claimed, unclaimed)
	return err
}
