// Package report writes timestamped JSON payout reports.
//
// Amounts are encoded as decimal strings of raw integer units so that values
// larger than 2^53 survive JSON consumers that parse numbers as float64.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmagro/staking-payouts/internal/format"
	"github.com/dmagro/staking-payouts/internal/payout"
)

// DefaultDir is where reports are written relative to the working directory.
const DefaultDir = "reports"

// Report is the JSON document written for one run.
type Report struct {
	Timestamp     time.Time `json:"timestamp"`
	SidecarURL    string    `json:"sidecar_url"`
	Depth         int       `json:"depth"`
	Era           *uint32   `json:"era,omitempty"`
	UnclaimedOnly bool      `json:"unclaimed_only"`
	Token         Token     `json:"token"`
	Accounts      []Account `json:"accounts"`
}

type Token struct {
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

// Account is the result for one stash account. Error is set instead of the
// totals when the query failed.
type Account struct {
	AccountID string  `json:"account_id"`
	Payouts   *int    `json:"payouts,omitempty"`
	Claimed   *string `json:"claimed,omitempty"`
	Unclaimed *string `json:"unclaimed,omitempty"`
	Total     *string `json:"total,omitempty"`
	Eras      []Era   `json:"eras,omitempty"`
	Error     *string `json:"error,omitempty"`
}

type Era struct {
	Era       *uint32 `json:"era,omitempty"`
	Payouts   int     `json:"payouts"`
	Claimed   string  `json:"claimed"`
	Unclaimed string  `json:"unclaimed"`
}

// New builds a report from query outcomes.
func New(sidecarURL string, req payout.Request, token format.Token, outcomes []payout.Outcome) *Report {
	r := &Report{
		Timestamp:     time.Now().UTC(),
		SidecarURL:    sidecarURL,
		Depth:         req.Depth,
		Era:           req.Era,
		UnclaimedOnly: req.UnclaimedOnly,
		Token:         Token{Symbol: token.Symbol, Decimals: token.Decimals},
		Accounts:      make([]Account, 0, len(outcomes)),
	}

	for _, o := range outcomes {
		acc := Account{AccountID: o.AccountID}
		if o.Err != nil {
			msg := o.Err.Error()
			acc.Error = &msg
			r.Accounts = append(r.Accounts, acc)
			continue
		}

		res := o.Result
		count := res.Count
		claimed, unclaimed, total := res.Claimed.String(), res.Unclaimed.String(), res.Total.String()
		acc.Payouts = &count
		acc.Claimed = &claimed
		acc.Unclaimed = &unclaimed
		acc.Total = &total
		for _, e := range res.Eras {
			acc.Eras = append(acc.Eras, Era{
				Era:       e.Era,
				Payouts:   e.Count,
				Claimed:   e.Claimed.String(),
				Unclaimed: e.Unclaimed.String(),
			})
		}
		r.Accounts = append(r.Accounts, acc)
	}

	return r
}

// WriteJSON pretty-prints data into dir/{prefix}-{YYYYMMDD-HHMMSS}.json and
// returns the file path. dir is created if needed.
func WriteJSON(dir string, data any, prefix string) (string, error) {
	if prefix == "" {
		prefix = "report"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	ts := time.Now().UTC().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", prefix, ts))

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return path, nil
}
