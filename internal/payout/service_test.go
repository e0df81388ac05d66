package payout_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/staking-payouts/internal/payout"
	"github.com/dmagro/staking-payouts/internal/sidecar"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// countingSidecar serves /blocks/head and staking payouts, counting block head hits.
func countingSidecar(t *testing.T, author string, payoutsStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var heads atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/blocks/head", func(w http.ResponseWriter, r *http.Request) {
		heads.Add(1)
		fmt.Fprintf(w, `{"number":"100","hash":"0x1","authorId":%q}`, author)
	})
	mux.HandleFunc("/accounts/", func(w http.ResponseWriter, r *http.Request) {
		if payoutsStatus != http.StatusOK {
			w.WriteHeader(payoutsStatus)
			return
		}
		_, _ = io.WriteString(w, `{"at":{"height":"100"},"erasPayouts":[{"era":"7","payouts":[
			{"nominatorStakingPayout":"1500000000000","claimed":false}]}]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &heads
}

func TestResolveAccount(t *testing.T) {
	t.Parallel()

	t.Run("when account id is empty", func(t *testing.T) {
		t.Parallel()

		srv, heads := countingSidecar(t, "author-stash", http.StatusOK)
		svc := payout.NewService(sidecar.NewClient(srv.URL, time.Second, 0, quietLogger()), quietLogger(), nil)

		// Act
		id, err := svc.ResolveAccount(context.Background(), "")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "author-stash", id)
		assert.Equal(t, int32(1), heads.Load())
	})

	t.Run("when account id is given", func(t *testing.T) {
		t.Parallel()

		srv, heads := countingSidecar(t, "author-stash", http.StatusOK)
		svc := payout.NewService(sidecar.NewClient(srv.URL, time.Second, 0, quietLogger()), quietLogger(), nil)

		// Act
		id, err := svc.ResolveAccount(context.Background(), "my-stash")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "my-stash", id)
		assert.Zero(t, heads.Load())
	})

	t.Run("when block has no author", func(t *testing.T) {
		t.Parallel()

		srv, _ := countingSidecar(t, "", http.StatusOK)
		svc := payout.NewService(sidecar.NewClient(srv.URL, time.Second, 0, quietLogger()), quietLogger(), nil)

		// Act
		_, err := svc.ResolveAccount(context.Background(), "")

		// Assert
		assert.ErrorIs(t, err, payout.ErrNoAuthor)
	})
}

func TestQuery(t *testing.T) {
	t.Parallel()

	t.Run("when sidecar answers", func(t *testing.T) {
		t.Parallel()

		srv, _ := countingSidecar(t, "author", http.StatusOK)
		var lines []string
		progress := func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }
		svc := payout.NewService(sidecar.NewClient(srv.URL, time.Second, 0, quietLogger()), quietLogger(), progress)

		// Act
		res, err := svc.Query(context.Background(), "stash", payout.Request{Depth: 8, UnclaimedOnly: true})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, res.Count)
		assert.True(t, res.Unclaimed.Equal(dec("1500000000000")))
		assert.Equal(t, []string{"Loading pending payouts of account stash ..."}, lines)
	})

	t.Run("when sidecar returns 404", func(t *testing.T) {
		t.Parallel()

		srv, _ := countingSidecar(t, "author", http.StatusNotFound)
		svc := payout.NewService(sidecar.NewClient(srv.URL, time.Second, 0, quietLogger()), quietLogger(), nil)

		// Act
		res, err := svc.Query(context.Background(), "stash", payout.Request{Depth: 8, UnclaimedOnly: true})

		// Assert
		assert.Nil(t, res)
		var statusErr *sidecar.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})
}

// fakeSidecar answers from memory and records the accounts it was asked about.
type fakeSidecar struct {
	mu       sync.Mutex
	author   string
	payouts  map[string]string
	failures map[string]error
	asked    []string
}

func (f *fakeSidecar) BlockHead(context.Context) (*sidecar.Block, error) {
	return &sidecar.Block{Number: "1", AuthorID: f.author}, nil
}

func (f *fakeSidecar) StakingPayouts(_ context.Context, id string, _ sidecar.PayoutsQuery) (*sidecar.StakingPayouts, error) {
	f.mu.Lock()
	f.asked = append(f.asked, id)
	f.mu.Unlock()

	if err := f.failures[id]; err != nil {
		return nil, err
	}
	return &sidecar.StakingPayouts{ErasPayouts: []byte(f.payouts[id])}, nil
}

func TestQueryAll(t *testing.T) {
	t.Parallel()

	notFound := &sidecar.StatusError{Endpoint: "/accounts/b/staking-payouts", StatusCode: http.StatusNotFound}
	fake := &fakeSidecar{
		author: "author",
		payouts: map[string]string{
			"a":      `[{"payouts":[{"nominatorStakingPayout":"1","claimed":true}]}]`,
			"author": `[{"payouts":[{"nominatorStakingPayout":"2","claimed":false},{"nominatorStakingPayout":"3","claimed":false}]}]`,
			"c":      `[{"payouts":[{"claimed":false}]}]`,
		},
		failures: map[string]error{"b": notFound},
	}
	svc := payout.NewService(fake, quietLogger(), nil)

	// Act
	outcomes := svc.QueryAll(context.Background(), []string{"a", "b", "", "c"}, payout.Request{Depth: 1})

	// Assert
	require.Len(t, outcomes, 4)

	assert.Equal(t, "a", outcomes[0].AccountID)
	require.NoError(t, outcomes[0].Err)
	assert.Equal(t, 1, outcomes[0].Result.Count)

	assert.Equal(t, "b", outcomes[1].AccountID)
	assert.ErrorIs(t, outcomes[1].Err, notFound)

	assert.Equal(t, "author", outcomes[2].AccountID, "empty id resolved from block author")
	require.NoError(t, outcomes[2].Err)
	assert.Equal(t, 2, outcomes[2].Result.Count)

	assert.Equal(t, "c", outcomes[3].AccountID)
	assert.ErrorIs(t, outcomes[3].Err, payout.ErrMissingField)

	assert.ElementsMatch(t, []string{"a", "b", "author", "c"}, fake.asked)
}
