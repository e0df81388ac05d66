// Package sidecar is a small client for the Substrate API sidecar REST service.
package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// StatusError is returned when the sidecar answers with a non-200 status.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sidecar request %s returned HTTP %d", e.Endpoint, e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	log        logrus.FieldLogger
}

// NewClient creates a client for the sidecar at baseURL. A zero timeout leaves
// requests bounded only by the context.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:    baseURL,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Get fetches path (with optional query) and decodes the JSON body into out.
// Network errors are retried with exponential backoff; a non-200 status is
// returned immediately as *StatusError.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (time.Duration, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		start := time.Now()
		err := c.doRequest(ctx, endpoint, out)
		latency := time.Since(start)

		entry := c.log.WithFields(logrus.Fields{
			"endpoint":   endpoint,
			"attempt":    attempt + 1,
			"latency_ms": latency.Milliseconds(),
		})

		if err == nil {
			entry.Debug("sidecar request succeeded")
			return latency, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			entry.WithField("status", statusErr.StatusCode).Debug("sidecar request rejected")
			return latency, err
		}
		entry.WithError(err).Debug("sidecar request failed")

		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) || ctx.Err() != nil {
			return latency, err
		}
		lastErr = err

		// Exponential backoff: 100ms, 200ms, 400ms...
		if attempt < c.maxRetries {
			backoff := time.Duration(1<<attempt) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return 0, fmt.Errorf("request %s failed after %d attempts: %w", endpoint, c.maxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, httpResp.Body)
		return &StatusError{Endpoint: endpoint, StatusCode: httpResp.StatusCode}
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// DecodeError reports a 200 response whose body is not the expected JSON.
// It is not retried.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid JSON response from %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// BlockHead fetches the most recent block.
func (c *Client) BlockHead(ctx context.Context) (*Block, error) {
	var block Block
	if _, err := c.Get(ctx, "/blocks/head", nil, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// StakingPayouts fetches payout records for a stash account.
func (c *Client) StakingPayouts(ctx context.Context, accountID string, q PayoutsQuery) (*StakingPayouts, error) {
	params := url.Values{}
	params.Set("depth", strconv.Itoa(q.Depth))
	params.Set("unclaimedOnly", strconv.FormatBool(q.UnclaimedOnly))
	if q.Era != nil {
		params.Set("era", strconv.FormatUint(uint64(*q.Era), 10))
	}

	var payouts StakingPayouts
	path := "/accounts/" + url.PathEscape(accountID) + "/staking-payouts"
	if _, err := c.Get(ctx, path, params, &payouts); err != nil {
		return nil, err
	}
	return &payouts, nil
}
