// Package feed fetches USD exchange quotes from the AwesomeAPI economy
// endpoints: the latest bid for a pair and a bounded daily history.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ruanmelo/cambiovivo/internal/domain"
	"github.com/ruanmelo/cambiovivo/internal/services/normalizer"
)

const (
	// DefaultBaseURL is the public AwesomeAPI host.
	DefaultBaseURL = "https://economia.awesomeapi.com.br"
	// DefaultHistoryLimit bounds the daily-series request.
	DefaultHistoryLimit = 100

	requestTimeout = 10 * time.Second
)

var (
	// ErrUnexpectedShape reports a 2xx response whose body does not carry
	// the fields the endpoint is documented to return.
	ErrUnexpectedShape = errors.New("feed returned an unexpected response shape")
	// ErrEmptyHistory reports a daily-series response with no usable points.
	ErrEmptyHistory = errors.New("feed returned an empty history")
)

// Client talks to the quote feed for a single currency pair. Both calls
// fail softly from the engine's point of view: errors degrade the cycle's
// snapshot, they never abort the loop.
type Client struct {
	baseURL      string
	pair         domain.Pair
	historyLimit int
	http         *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHistoryLimit overrides the daily-series request bound.
func WithHistoryLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.historyLimit = n
		}
	}
}

// NewClient creates a feed client for the pair.
func NewClient(pair domain.Pair, opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		pair:         pair,
		historyLimit: DefaultHistoryLimit,
		http:         &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current fetches the latest bid for the pair. The response is a map keyed
// by the pair symbol; a missing key or unparsable bid is an unexpected
// shape, not a transport failure.
func (c *Client) Current(ctx context.Context) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/json/last/%s", c.baseURL, c.pair.Slug())

	body, err := c.get(ctx, url)
	if err != nil {
		return decimal.Decimal{}, err
	}

	var payload map[string]struct {
		Bid string `json:"bid"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Decimal{}, errors.Wrap(ErrUnexpectedShape, err.Error())
	}

	quote, ok := payload[c.pair.Symbol()]
	if !ok {
		return decimal.Decimal{}, errors.Wrapf(ErrUnexpectedShape, "missing %q key", c.pair.Symbol())
	}

	bid, err := decimal.NewFromString(quote.Bid)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrUnexpectedShape, "bad bid %q", quote.Bid)
	}
	return bid, nil
}

// History fetches the bounded daily series for the pair, sorted ascending
// by timestamp. Elements missing a timestamp or bid make the whole
// response invalid; a valid but empty list is ErrEmptyHistory.
func (c *Client) History(ctx context.Context) (domain.Series, error) {
	url := fmt.Sprintf("%s/json/daily/%s/%d", c.baseURL, c.pair.Slug(), c.historyLimit)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, errors.Wrap(ErrUnexpectedShape, err.Error())
	}
	if len(items) == 0 {
		return nil, ErrEmptyHistory
	}

	series := make(domain.Series, 0, len(items))
	for i, item := range items {
		rawTS, okTS := item["timestamp"]
		rawBid, okBid := item["bid"]
		if !okTS || !okBid {
			return nil, errors.Wrapf(ErrUnexpectedShape, "element %d lacks timestamp or bid", i)
		}

		ts, err := parseEpoch(rawTS)
		if err != nil {
			return nil, errors.Wrapf(ErrUnexpectedShape, "element %d timestamp: %v", i, err)
		}

		bid, err := parseBid(rawBid)
		if err != nil {
			return nil, errors.Wrapf(ErrUnexpectedShape, "element %d bid: %v", i, err)
		}

		series = append(series, domain.QuotePoint{Timestamp: ts, Bid: bid})
	}

	series.Sort()
	return series, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build feed request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "feed request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read feed response")
	}
	return body, nil
}

// parseEpoch accepts the epoch-seconds timestamp as either a JSON number
// or a numeric string; the feed has served both over time.
func parseEpoch(raw json.RawMessage) (time.Time, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		secs, convErr := n.Int64()
		if convErr != nil {
			return time.Time{}, convErr
		}
		return time.Unix(secs, 0).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}

func parseBid(raw json.RawMessage) (decimal.Decimal, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return decimal.NewFromString(s)
	}

	var any interface{}
	if err := json.Unmarshal(raw, &any); err != nil {
		return decimal.Decimal{}, err
	}
	bid := normalizer.Decimal(any)
	if bid.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("unparsable bid %s", string(raw))
	}
	return bid, nil
}
