// Package payout resolves stash accounts, fetches their staking payouts from
// the sidecar and reduces them into claimed / unclaimed totals.
package payout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Result is the reduction of every payout record in a staking-payouts response.
// Total always equals Claimed + Unclaimed and Count is the number of records summed.
type Result struct {
	Count     int
	Claimed   decimal.Decimal
	Unclaimed decimal.Decimal
	Total     decimal.Decimal
	Eras      []EraSummary
}

// EraSummary is the per-era share of a Result. Era is nil when the sidecar
// did not report the era number.
type EraSummary struct {
	Era       *uint32
	Count     int
	Claimed   decimal.Decimal
	Unclaimed decimal.Decimal
}

func (e EraSummary) Total() decimal.Decimal {
	return e.Claimed.Add(e.Unclaimed)
}

// Aggregate sums the payouts of a raw erasPayouts array.
//
// An empty array is a valid result with zero payouts. A missing or null array,
// or any record that cannot be summed, returns a *RecordError wrapping
// ErrMissingField or ErrMalformedRecord and no partial result.
func Aggregate(erasPayouts json.RawMessage) (*Result, error) {
	groups, err := rawArray(erasPayouts)
	if err != nil {
		return nil, wrapAt(-1, -1, "", err)
	}

	res := &Result{
		Claimed:   decimal.Zero,
		Unclaimed: decimal.Zero,
		Total:     decimal.Zero,
		Eras:      make([]EraSummary, 0, len(groups)),
	}

	for i, rawGroup := range groups {
		summary, err := aggregateEra(i, rawGroup)
		if err != nil {
			return nil, err
		}
		res.Count += summary.Count
		res.Claimed = res.Claimed.Add(summary.Claimed)
		res.Unclaimed = res.Unclaimed.Add(summary.Unclaimed)
		res.Eras = append(res.Eras, summary)
	}
	res.Total = res.Claimed.Add(res.Unclaimed)

	return res, nil
}

func aggregateEra(i int, rawGroup json.RawMessage) (EraSummary, error) {
	summary := EraSummary{Claimed: decimal.Zero, Unclaimed: decimal.Zero}

	var group map[string]json.RawMessage
	if err := json.Unmarshal(rawGroup, &group); err != nil || group == nil {
		return summary, malformed(i, -1, "", fmt.Errorf("expected object, got %s", shape(rawGroup)))
	}

	if rawEra, ok := group["era"]; ok {
		era, err := parseEra(rawEra)
		if err != nil {
			return summary, malformed(i, -1, "era", err)
		}
		summary.Era = &era
	}

	payouts, err := rawArray(group["payouts"])
	if err != nil {
		return summary, wrapAt(i, -1, "payouts", err)
	}

	for j, rawPayout := range payouts {
		var record map[string]json.RawMessage
		if err := json.Unmarshal(rawPayout, &record); err != nil || record == nil {
			return summary, malformed(i, j, "", fmt.Errorf("expected object, got %s", shape(rawPayout)))
		}

		rawValue, ok := record["nominatorStakingPayout"]
		if !ok {
			return summary, missing(i, j, "nominatorStakingPayout")
		}
		value, err := parseAmount(rawValue)
		if err != nil {
			return summary, malformed(i, j, "nominatorStakingPayout", err)
		}

		rawClaimed, ok := record["claimed"]
		if !ok {
			return summary, missing(i, j, "claimed")
		}
		var claimed bool
		if err := json.Unmarshal(rawClaimed, &claimed); err != nil || isNull(rawClaimed) {
			return summary, malformed(i, j, "claimed", fmt.Errorf("expected boolean, got %s", shape(rawClaimed)))
		}

		summary.Count++
		if claimed {
			summary.Claimed = summary.Claimed.Add(value)
		} else {
			summary.Unclaimed = summary.Unclaimed.Add(value)
		}
	}

	return summary, nil
}

var errAbsent = errors.New("absent")

func wrapAt(era, record int, field string, err error) error {
	if errors.Is(err, errAbsent) {
		return missing(era, record, field)
	}
	return malformed(era, record, field, err)
}

func rawArray(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, errAbsent
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("expected array, got %s", shape(raw))
	}
	return items, nil
}

// parseAmount accepts an integer encoded as a JSON string or number.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	if isNull(raw) {
		return decimal.Zero, fmt.Errorf("expected integer, got null")
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero, fmt.Errorf("expected integer, got %s", string(raw))
	}
	if !d.IsInteger() {
		return decimal.Zero, fmt.Errorf("fractional amount %s", d.String())
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %s", d.String())
	}
	return d, nil
}

// parseEra accepts an era index encoded as a JSON string or number.
func parseEra(raw json.RawMessage) (uint32, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid era %q", s)
		}
		return uint32(n), nil
	}
	var n uint32
	if err := json.Unmarshal(raw, &n); err != nil || isNull(raw) {
		return 0, fmt.Errorf("invalid era %s", string(raw))
	}
	return n, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// shape names the JSON type of raw for error messages.
func shape(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "nothing"
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
