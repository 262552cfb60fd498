// Package explorer answers page requests against the loaded dataset. It puts
// the result cache in front of the store and records query metrics.
package explorer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ruslano69/minionview/pkg/cache"
	"github.com/ruslano69/minionview/pkg/core/filter"
	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/core/pager"
	"github.com/ruslano69/minionview/pkg/core/query"
	"github.com/ruslano69/minionview/pkg/dataset"
	"github.com/ruslano69/minionview/pkg/metrics"
)

// CostColumn backs the cost slider.
const CostColumn = "minion_cost_total"

// Page is one page of results.
type Page struct {
	Results []minion.Result `json:"results"`
	Pager   pager.Pager     `json:"pager"`
}

// Options are the distinct values a filter bar offers.
type Options struct {
	Fuels    []string `json:"fuels,omitempty"`
	Storages []string `json:"storages,omitempty"`
	Items    []string `json:"items,omitempty"`
	CostMin  float64  `json:"cost_min"`
	CostMax  float64  `json:"cost_max"`
}

// Service queries the store. A nil cache disables caching.
type Service struct {
	store *dataset.Store
	cache *cache.Cache
}

func New(store *dataset.Store, c *cache.Cache) *Service {
	return &Service{store: store, cache: c}
}

// Store returns the underlying dataset store.
func (s *Service) Store() *dataset.Store {
	return s.store
}

// checksum identifies the current dataset version in cache keys.
func (s *Service) checksum() string {
	info, err := s.store.Info()
	if err != nil {
		return ""
	}
	if info.Checksum != "" {
		return info.Checksum
	}
	return info.LoadedAt.UTC().Format(time.RFC3339Nano)
}

// Page runs the count and select queries of f.
func (s *Service) Page(ctx context.Context, f filter.Filter) (Page, error) {
	b, err := s.store.Builder()
	if err != nil {
		return Page{}, err
	}
	countStmt, err := b.Count(f)
	if err != nil {
		return Page{}, err
	}
	total, err := s.Count(ctx, countStmt)
	if err != nil {
		return Page{}, err
	}

	p := pager.New(total, f.PageSize, f.Page)
	selectStmt, err := b.Select(f, p.Page, p.PageSize)
	if err != nil {
		return Page{}, err
	}
	results, err := s.Results(ctx, selectStmt)
	if err != nil {
		return Page{}, err
	}
	return Page{Results: results, Pager: p}, nil
}

// Results runs a select statement through the cache.
func (s *Service) Results(ctx context.Context, stmt query.Statement) ([]minion.Result, error) {
	sum := s.checksum()
	if rows, ok, err := s.cache.GetResults(ctx, sum, stmt); err != nil {
		log.Warn().Err(err).Msg("cache read failed")
	} else if ok {
		return rows, nil
	}

	start := time.Now()
	rows, err := s.store.Results(ctx, stmt)
	metrics.ObserveQuery("results", start, err)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetResults(ctx, sum, stmt, rows); err != nil {
		log.Warn().Err(err).Msg("cache write failed")
	}
	return rows, nil
}

// Count runs a count statement through the cache.
func (s *Service) Count(ctx context.Context, stmt query.Statement) (int64, error) {
	sum := s.checksum()
	if n, ok, err := s.cache.GetCount(ctx, sum, stmt); err != nil {
		log.Warn().Err(err).Msg("cache read failed")
	} else if ok {
		return n, nil
	}

	start := time.Now()
	n, err := s.store.Count(ctx, stmt)
	metrics.ObserveQuery("count", start, err)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetCount(ctx, sum, stmt, n); err != nil {
		log.Warn().Err(err).Msg("cache write failed")
	}
	return n, nil
}

// Best finds the winning combination of one grid cell. It returns nil when no
// combination fits the budget.
func (s *Service) Best(ctx context.Context, types []string, budget int64, frequency int) (*minion.Best, error) {
	b, err := s.store.Builder()
	if err != nil {
		return nil, err
	}
	stmt, err := b.Best(types, budget, frequency)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	r, err := s.store.Best(ctx, stmt)
	metrics.ObserveQuery("best", start, err)
	if err != nil || r == nil {
		return nil, err
	}
	best := minion.NewBest(budget, frequency, *r)
	return &best, nil
}

// Grid fills every budget and frequency cell for the given minion types.
func (s *Service) Grid(ctx context.Context, types []string) (map[string]*minion.Best, error) {
	cells := make(map[string]*minion.Best, len(minion.Budgets)*len(minion.Frequencies))
	for _, budget := range minion.Budgets {
		for _, f := range minion.Frequencies {
			best, err := s.Best(ctx, types, budget, f.Seconds)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", minion.CellID(budget, f.Seconds), err)
			}
			if best != nil {
				cells[best.CellID()] = best
			}
		}
	}
	return cells, nil
}

// Options reads the choices offered by the controls of layout.
func (s *Service) Options(ctx context.Context, layout minion.Layout) (Options, error) {
	var o Options
	var err error
	if layout.Fuels {
		if o.Fuels, err = s.distinct(ctx, "fuel"); err != nil {
			return o, err
		}
	}
	if layout.Storages {
		if o.Storages, err = s.distinct(ctx, "storagetype"); err != nil {
			return o, err
		}
	}
	if layout.Items {
		if o.Items, err = s.items(ctx); err != nil {
			return o, err
		}
	}
	if layout.CostRange {
		start := time.Now()
		o.CostMin, o.CostMax, err = s.store.Bounds(ctx, CostColumn)
		metrics.ObserveQuery("bounds", start, err)
		if err != nil {
			return o, err
		}
	}
	return o, nil
}

func (s *Service) distinct(ctx context.Context, column string) ([]string, error) {
	start := time.Now()
	values, err := s.store.Distinct(ctx, column)
	metrics.ObserveQuery("distinct", start, err)
	return values, err
}

// items merges both item columns, keeping first-seen order.
func (s *Service) items(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, column := range []string{"item_1", "item_2"} {
		values, err := s.distinct(ctx, column)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// Reload swaps in a fresh copy of the dataset and records the outcome.
func (s *Service) Reload(ctx context.Context) error {
	err := s.store.Reload(ctx)
	var rows int64
	if err == nil {
		if info, infoErr := s.store.Info(); infoErr == nil {
			rows = info.Rows
		}
	}
	metrics.DatasetLoaded(rows, err)
	return err
}
