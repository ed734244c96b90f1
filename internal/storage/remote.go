package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// resolvedFields is the projection requested for linked-entity lookups.
const resolvedFields = "id,name,title,category,type,image"

// RemoteStore implements Store against the hosted record backend over HTTP.
// All calls run through a circuit breaker so a struggling backend fails fast
// instead of stalling the console; an open breaker surfaces as
// ErrUnavailable.
type RemoteStore struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewRemoteStore creates a RemoteStore for the given base URL. A zero
// timeout falls back to 15 seconds per request.
func NewRemoteStore(baseURL string, timeout time.Duration, logger *zap.Logger) *RemoteStore {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    "record-backend",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("record backend breaker state change",
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
		// 404s and validation rejections are the backend answering, not failing.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	}
	return &RemoteStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func (s *RemoteStore) FetchCollection(ctx context.Context, kind string) ([]Record, error) {
	var out []Record
	err := s.do(ctx, http.MethodGet,
		fmt.Sprintf("/collections/%s", url.PathEscape(kind)), nil, &out)
	return out, err
}

func (s *RemoteStore) FetchByIDs(ctx context.Context, kind string, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("fields", resolvedFields)
	var out []Record
	err := s.do(ctx, http.MethodGet,
		fmt.Sprintf("/collections/%s?%s", url.PathEscape(kind), q.Encode()), nil, &out)
	return out, err
}

func (s *RemoteStore) UpdateRecord(ctx context.Context, kind, id string, partial map[string]any) error {
	return s.do(ctx, http.MethodPatch,
		fmt.Sprintf("/collections/%s/%s", url.PathEscape(kind), url.PathEscape(id)), partial, nil)
}

func (s *RemoteStore) DeleteRecord(ctx context.Context, kind, id string) error {
	return s.do(ctx, http.MethodDelete,
		fmt.Sprintf("/collections/%s/%s", url.PathEscape(kind), url.PathEscape(id)), nil, nil)
}

// do runs one request through the breaker, decoding a JSON response into out
// when out is non-nil.
func (s *RemoteStore) do(ctx context.Context, method, path string, body any, out any) error {
	_, err := s.breaker.Execute(func() (any, error) {
		var reader io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("encoding request body: %w", err)
			}
			reader = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: backend returned %d", ErrUnavailable, resp.StatusCode)
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("backend rejected %s %s: %d", method, path, resp.StatusCode)
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("decoding response: %w", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return err
	}
	return nil
}

// BreakerState reports the breaker state for health endpoints.
func (s *RemoteStore) BreakerState() string {
	switch s.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
