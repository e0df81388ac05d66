package payout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dmagro/staking-payouts/internal/sidecar"
)

// ErrNoAuthor is returned when the latest block does not name its author.
var ErrNoAuthor = errors.New("latest block has no authorId")

// Sidecar is the part of the sidecar API the service depends on.
type Sidecar interface {
	BlockHead(ctx context.Context) (*sidecar.Block, error)
	StakingPayouts(ctx context.Context, accountID string, q sidecar.PayoutsQuery) (*sidecar.StakingPayouts, error)
}

// Request describes one payout query.
type Request struct {
	Depth         int
	Era           *uint32
	UnclaimedOnly bool
}

// Outcome is the result of querying a single account.
type Outcome struct {
	AccountID string
	Result    *Result
	Err       error
}

// Progress receives human-readable status lines while a query runs.
type Progress func(format string, args ...any)

type Service struct {
	sidecar  Sidecar
	log      logrus.FieldLogger
	progress Progress
}

// NewService wires a Service to a sidecar client. progress may be nil.
func NewService(sc Sidecar, log logrus.FieldLogger, progress Progress) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if progress == nil {
		progress = func(string, ...any) {}
	}
	return &Service{sidecar: sc, log: log, progress: progress}
}

// ResolveAccount returns accountID unchanged, or the author of the latest
// block when accountID is empty.
func (s *Service) ResolveAccount(ctx context.Context, accountID string) (string, error) {
	if accountID != "" {
		return accountID, nil
	}

	s.progress("Get address of last block ...")
	block, err := s.sidecar.BlockHead(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve account: %w", err)
	}
	if block.AuthorID == "" {
		return "", fmt.Errorf("resolve account: block %s: %w", block.Number, ErrNoAuthor)
	}

	s.log.WithFields(logrus.Fields{"block": block.Number, "author": block.AuthorID}).Debug("resolved account from block author")
	return block.AuthorID, nil
}

// Query fetches and aggregates the payouts of one resolved account.
func (s *Service) Query(ctx context.Context, accountID string, req Request) (*Result, error) {
	s.progress("Loading pending payouts of account %s ...", accountID)

	resp, err := s.sidecar.StakingPayouts(ctx, accountID, sidecar.PayoutsQuery{
		Depth:         req.Depth,
		Era:           req.Era,
		UnclaimedOnly: req.UnclaimedOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch payouts: %w", err)
	}

	result, err := Aggregate(resp.ErasPayouts)
	if err != nil {
		return nil, fmt.Errorf("aggregate payouts of %s: %w", accountID, err)
	}

	s.log.WithFields(logrus.Fields{
		"account": accountID,
		"height":  resp.At.Height,
		"payouts": result.Count,
	}).Debug("aggregated payouts")
	return result, nil
}

// QueryAll queries every account concurrently. Outcomes are returned in the
// order of accountIDs, and a failure for one account does not stop the others.
// Empty ids are resolved from the latest block author.
func (s *Service) QueryAll(ctx context.Context, accountIDs []string, req Request) []Outcome {
	outcomes := make([]Outcome, len(accountIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range accountIDs {
		i, id := i, id
		g.Go(func() error {
			out := Outcome{AccountID: id}

			resolved, err := s.ResolveAccount(gctx, id)
			if err != nil {
				out.Err = err
			} else {
				out.AccountID = resolved
				out.Result, out.Err = s.Query(gctx, resolved, req)
			}

			mu.Lock()
			outcomes[i] = out
			mu.Unlock()
			return nil // collect every outcome
		})
	}

	_ = g.Wait()
	return outcomes
}
