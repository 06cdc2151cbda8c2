package models

import "context"

// DataClient fetches the raw tabular time series the analyzer consumes.
type DataClient interface {
	GetPriceTable(ctx context.Context) (*Table, error)
	GetMarginData(ctx context.Context) (MarginData, error)
}
