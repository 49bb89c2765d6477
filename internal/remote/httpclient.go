package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/roach88/gridsync/internal/game"
)

const defaultRequestTimeout = 15 * time.Second

// HTTPClient implements Client against a syncd server.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the syncd server at baseURL,
// authenticating with the given device token.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
}

func (c *HTTPClient) UploadGame(ctx context.Context, r *game.Record) error {
	fields := game.EncodeRecord(r)
	return c.do(ctx, http.MethodPut, "/v1/games/"+url.PathEscape(r.ID), fields, nil)
}

func (c *HTTPClient) FetchGame(ctx context.Context, id string) (*game.Record, error) {
	var fields game.RecordFields
	if err := c.do(ctx, http.MethodGet, "/v1/games/"+url.PathEscape(id), nil, &fields); err != nil {
		return nil, err
	}
	return game.DecodeRecord(fields), nil
}

func (c *HTTPClient) QueryGames(ctx context.Context, completed bool, limit int) ([]*game.Record, error) {
	q := url.Values{}
	if completed {
		q.Set("completed", "1")
	} else {
		q.Set("completed", "0")
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var fields []game.RecordFields
	if err := c.do(ctx, http.MethodGet, "/v1/games?"+q.Encode(), nil, &fields); err != nil {
		return nil, err
	}
	records := make([]*game.Record, 0, len(fields))
	for _, f := range fields {
		records = append(records, game.DecodeRecord(f))
	}
	return records, nil
}

func (c *HTTPClient) DeleteGame(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/v1/games/"+url.PathEscape(id), nil, nil)
	if err == ErrNotFound {
		return nil
	}
	return err
}

func (c *HTTPClient) FetchSettings(ctx context.Context) (*game.Settings, error) {
	var fields game.SettingsFields
	if err := c.do(ctx, http.MethodGet, "/v1/settings", nil, &fields); err != nil {
		return nil, err
	}
	return game.DecodeSettings(fields), nil
}

func (c *HTTPClient) UploadSettings(ctx context.Context, s *game.Settings) error {
	return c.do(ctx, http.MethodPut, "/v1/settings", game.EncodeSettings(s), nil)
}

func (c *HTTPClient) FetchStatistics(ctx context.Context) (*game.Statistics, error) {
	var fields game.StatisticsFields
	if err := c.do(ctx, http.MethodGet, "/v1/statistics", nil, &fields); err != nil {
		return nil, err
	}
	return game.DecodeStatistics(fields), nil
}

func (c *HTTPClient) UploadStatistics(ctx context.Context, s *game.Statistics) error {
	return c.do(ctx, http.MethodPut, "/v1/statistics", game.EncodeStatistics(s), nil)
}

// do performs one JSON request. A 404 maps to ErrNotFound; any other
// non-2xx status becomes a StatusError.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("remote: decode response: %w", err)
		}
	}
	return nil
}
