package finlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/benjamintsai23/margin-momentum-trading/internal/platform/http"
	"github.com/benjamintsai23/margin-momentum-trading/models"
)

// Client is the FinLab data API client. The analysis core treats it as a
// black box returning tabular time series.
type Client struct {
	token      string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new FinLab client
type ClientOptions struct {
	Token           string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new FinLab API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	// Apply defaults if not set
	if httpOpts.Timeout == 0 {
		httpOpts.Timeout = 30 * time.Second
	}
	if httpOpts.RequestsPerSec == 0 {
		httpOpts.RequestsPerSec = 5
	}
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://api.finlab.tw"
	}

	return &Client{
		token:      options.Token,
		baseURL:    baseURL,
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "finlab_client").Logger(),
	}
}

// tableResponse is the wire format of a single dataset: a date index, a
// column per instrument and a row-major value grid with nulls for gaps.
type tableResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Index   []string     `json:"index"`
	Columns []string     `json:"columns"`
	Data    [][]*float64 `json:"data"`
}

// GetData fetches one named dataset and converts it into a Table.
func (c *Client) GetData(ctx context.Context, key string) (*models.Table, error) {
	reqURL := fmt.Sprintf("%s/data?dataset=%s&token=%s", c.baseURL, url.QueryEscape(key), url.QueryEscape(c.token))

	c.logger.Debug().Str("dataset", key).Msg("Fetching dataset")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data tableResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("dataset", key).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Status == "error" {
		c.logger.Error().Str("dataset", key).Str("message", data.Message).Msg("FinLab API error")
		return nil, fmt.Errorf("FinLab API error: %s", data.Message)
	}
	if len(data.Index) == 0 || len(data.Columns) == 0 {
		c.logger.Warn().Str("dataset", key).Msg("Empty dataset in response")
		return nil, fmt.Errorf("empty data returned for %s", key)
	}

	table := &models.Table{
		Dates:  append([]string(nil), data.Index...),
		Values: make(map[string]map[string]float64, len(data.Columns)),
	}
	sort.Strings(table.Dates)

	for ri, date := range data.Index {
		if ri >= len(data.Data) {
			break
		}
		row := data.Data[ri]
		for ci, col := range data.Columns {
			if ci >= len(row) || row[ci] == nil {
				continue
			}
			cells, ok := table.Values[col]
			if !ok {
				cells = make(map[string]float64, len(data.Index))
				table.Values[col] = cells
			}
			cells[date] = *row[ci]
		}
	}

	c.logger.Debug().Str("dataset", key).Int("instruments", len(table.Values)).Msg("Fetched dataset")
	return table, nil
}

// GetMultipleData fetches a batch of datasets. Individual failures are
// logged and skipped so one missing dataset never sinks the batch.
func (c *Client) GetMultipleData(ctx context.Context, keys []string) (models.MarginData, error) {
	data := make(models.MarginData, len(keys))
	c.logger.Info().Int("count", len(keys)).Msg("Fetching dataset batch")

	for _, key := range keys {
		table, err := c.GetData(ctx, key)
		if err != nil {
			c.logger.Warn().Err(err).Str("dataset", key).Msg("Skipping dataset")
			continue
		}
		data[key] = table
	}

	c.logger.Info().Int("fetched", len(data)).Int("requested", len(keys)).Msg("Dataset batch complete")
	return data, nil
}

// GetPriceTable fetches daily closing prices for all instruments.
func (c *Client) GetPriceTable(ctx context.Context) (*models.Table, error) {
	return c.GetData(ctx, "price:close")
}

// GetMarginData fetches the margin/short transaction bundle.
func (c *Client) GetMarginData(ctx context.Context) (models.MarginData, error) {
	keys := []string{
		models.FieldMarginBuy,
		models.FieldMarginSell,
		models.FieldMarginPrevBalance,
		models.FieldMarginTodayBalance,
		models.FieldMarginUsage,
		models.FieldShortBuy,
		models.FieldShortSell,
		models.FieldShortPrevBalance,
		models.FieldShortTodayBalance,
		models.FieldShortUsage,
		models.FieldOffsetVolume,
	}

	return c.GetMultipleData(ctx, keys)
}
