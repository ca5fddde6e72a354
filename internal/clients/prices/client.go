// Package prices fetches daily close history for many symbols from an HTTP quote API.
package prices

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	defaultTimeout = 30 * time.Second
	historyPath    = "/history"
	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 32 << 20
)

// Client implements universe.PriceHistorySource against a batch history endpoint.
//
// Request:  GET {baseURL}/history?symbols=A,B,C&days=252
// Response: {"data": {"A": [{"date": "2024-01-02", "close": 10.5}, ...], ...}}
//
// Rows may also be compact "date,close" strings.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a price history client. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "prices").Logger(),
	}
}

// Fetch retrieves close series for all symbols in a single request.
// Symbols missing from the response are omitted from the result.
func (c *Client) Fetch(ctx context.Context, symbols []string, lookbackDays int) (map[string][]universe.DailyPrice, error) {
	if len(symbols) == 0 {
		return map[string][]universe.DailyPrice{}, nil
	}
	if lookbackDays <= 0 {
		return nil, fmt.Errorf("invalid lookback days: %d", lookbackDays)
	}

	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))
	q.Set("days", strconv.Itoa(lookbackDays))
	reqURL := c.baseURL + historyPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Int("symbols", len(symbols)).Int("days", lookbackDays).Msg("Fetching price history")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price history request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price history API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	result, err := parseHistory(body)
	if err != nil {
		return nil, err
	}

	c.log.Debug().Int("returned", len(result)).Msg("Fetched price history")
	return result, nil
}

func parseHistory(body []byte) (map[string][]universe.DailyPrice, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to parse response: invalid JSON")
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || !data.IsObject() {
		return nil, fmt.Errorf("failed to parse response: no data object")
	}

	result := make(map[string][]universe.DailyPrice)
	data.ForEach(func(key, rows gjson.Result) bool {
		if !rows.IsArray() {
			return true
		}
		series := make([]universe.DailyPrice, 0, len(rows.Array()))
		for _, row := range rows.Array() {
			if p, ok := parseRow(row); ok {
				series = append(series, p)
			}
		}
		if len(series) == 0 {
			return true
		}
		sort.SliceStable(series, func(i, j int) bool { return series[i].Date < series[j].Date })
		result[key.String()] = series
		return true
	})
	return result, nil
}

func parseRow(row gjson.Result) (universe.DailyPrice, bool) {
	if row.IsObject() {
		date := strings.TrimSpace(row.Get("date").String())
		closeVal := row.Get("close")
		if date == "" || !closeVal.Exists() {
			return universe.DailyPrice{}, false
		}
		return validRow(date, closeVal.Float())
	}

	parts := strings.Split(strings.TrimSpace(row.String()), ",")
	if len(parts) < 2 {
		return universe.DailyPrice{}, false
	}
	closeVal, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return universe.DailyPrice{}, false
	}
	return validRow(strings.TrimSpace(parts[0]), closeVal)
}

func validRow(date string, closeVal float64) (universe.DailyPrice, bool) {
	if date == "" || closeVal <= 0 {
		return universe.DailyPrice{}, false
	}
	return universe.DailyPrice{Date: date, Close: closeVal}, true
}
