package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/staking-payouts/internal/format"
	"github.com/dmagro/staking-payouts/internal/payout"
)

var ksm = format.Token{Symbol: "KSM", Decimals: 12}

func sampleResult() *payout.Result {
	return &payout.Result{
		Count:     4,
		Claimed:   decimal.RequireFromString("4000000000000"),
		Unclaimed: decimal.RequireFromString("1000000000000"),
		Total:     decimal.RequireFromString("5000000000000"),
	}
}

func TestSummaryFormatter(t *testing.T) {
	format.DisableColors()

	t.Run("unclaimed only", func(t *testing.T) {
		var buf bytes.Buffer
		f := &SummaryFormatter{AccountID: "stash", Depth: 8, UnclaimedOnly: true, Token: ksm, Result: sampleResult()}

		require.NoError(t, f.Format(&buf))

		assert.Equal(t,
			"Account stash received 4 payouts for 8 era(s).\n"+
				"Total payout unclaimed is 1.000KSM\n",
			buf.String())
	})

	t.Run("all payouts", func(t *testing.T) {
		var buf bytes.Buffer
		f := &SummaryFormatter{AccountID: "stash", Depth: 2, UnclaimedOnly: false, Token: ksm, Result: sampleResult()}

		require.NoError(t, f.Format(&buf))

		assert.Equal(t,
			"Account stash received 4 payouts for 2 era(s).\n"+
				"Total payout is 5.000KSM\n"+
				"4.000KSM has been claimed.\n"+
				"Still 1.000KSM to claim.\n",
			buf.String())
	})
}

func TestEraTableFormatter(t *testing.T) {
	format.DisableColors()

	era := uint32(5120)
	var buf bytes.Buffer
	f := &EraTableFormatter{
		Token: ksm,
		Eras: []payout.EraSummary{
			{Era: &era, Count: 2, Claimed: decimal.RequireFromString("2000000000000"), Unclaimed: decimal.RequireFromString("500000000000")},
			{Count: 0, Claimed: decimal.Zero, Unclaimed: decimal.Zero},
		},
	}

	require.NoError(t, f.Format(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"Era", "Payouts", "Claimed", "Unclaimed", "Total"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"5120", "2", "2.000KSM", "500.000mKSM", "2.500KSM"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"-", "0", "0.000mKSM", "0.000mKSM", "0.000mKSM"}, strings.Fields(lines[2]))
}

func TestEraTableFormatterEmpty(t *testing.T) {
	format.DisableColors()

	var buf bytes.Buffer
	require.NoError(t, (&EraTableFormatter{Token: ksm}).Format(&buf))
	assert.Equal(t, "No eras with payouts.\n", buf.String())
}
