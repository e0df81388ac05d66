package sidecar

import "encoding/json"

// Block is the subset of the /blocks/{id} response the CLI needs.
// Sidecar encodes block numbers as decimal strings.
type Block struct {
	Number     string `json:"number"`
	Hash       string `json:"hash"`
	ParentHash string `json:"parentHash"`
	AuthorID   string `json:"authorId"`
}

// PayoutsQuery holds the query parameters of the staking-payouts endpoint.
// A nil Era lets the sidecar pick the most recent completed era.
type PayoutsQuery struct {
	Depth         int
	Era           *uint32
	UnclaimedOnly bool
}

// At identifies the block a sidecar response was computed at.
type At struct {
	Hash   string `json:"hash"`
	Height string `json:"height"`
}

// StakingPayouts is the /accounts/{id}/staking-payouts response envelope.
//
// ErasPayouts is left raw: sidecar mixes objects and plain strings in this
// array (for eras it has no reward points for), and the payout package
// reports those shapes as errors with their position.
type StakingPayouts struct {
	At          At              `json:"at"`
	ErasPayouts json.RawMessage `json:"erasPayouts"`
}
