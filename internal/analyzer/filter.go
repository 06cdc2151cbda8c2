package analyzer

import (
	"sort"

	"github.com/benjamintsai23/margin-momentum-trading/config"
	"github.com/benjamintsai23/margin-momentum-trading/models"
)

// Filter drops low-quality signals and orders the rest for presentation.
type Filter struct {
	cfg *config.Config
}

// NewFilter creates a signal filter.
func NewFilter(cfg *config.Config) *Filter {
	return &Filter{cfg: cfg}
}

// Apply removes signals whose price is outside the configured band and
// stable-sorts the remainder by grade priority, so ties keep the
// detector's emission order.
func (f *Filter) Apply(signals []models.Signal) []models.Signal {
	filtered := make([]models.Signal, 0, len(signals))
	for _, s := range signals {
		if s.Price < f.cfg.MinStockPrice || s.Price > f.cfg.MaxStockPrice {
			continue
		}
		filtered = append(filtered, s)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Grade.Priority() < filtered[j].Grade.Priority()
	})
	return filtered
}
