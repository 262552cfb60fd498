package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/minionview/pkg/cache"
	"github.com/ruslano69/minionview/pkg/core/filter"
	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/core/pager"
	"github.com/ruslano69/minionview/pkg/dataset"
	"github.com/ruslano69/minionview/pkg/explorer"
	"github.com/ruslano69/minionview/pkg/render"
	"github.com/ruslano69/minionview/pkg/xlsx"
)

type server struct {
	cfg   *Config
	svc   *explorer.Service
	cache *cache.Cache
}

// newRouter wires the pages, the JSON API and the operational endpoints.
func newRouter(cfg *Config, svc *explorer.Service, c *cache.Cache) http.Handler {
	s := &server{cfg: cfg, svc: svc, cache: c}

	r := chi.NewRouter()
	r.Use(zerologMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	r.Get("/", s.handleExplorer("table"))
	r.Get("/upgrades", s.handleExplorer("upgrades"))
	r.Get("/best", s.handleGrid)
	r.Get("/export.xlsx", s.handleExport)
	r.Get("/data/{asset}", s.handleAsset)

	r.Route("/api", func(r chi.Router) {
		r.Get("/results", s.handleAPIResults)
		r.Get("/count", s.handleAPICount)
		r.Get("/best", s.handleAPIBest)
	})

	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ── pages ────────────────────────────────────────────────────────────────────

func (s *server) chrome(r *http.Request) render.Chrome {
	c := render.Chrome{
		Name: s.cfg.UI.Name,
		Links: []render.Link{
			{Href: "/", Label: "Combinations"},
			{Href: "/upgrades", Label: "Upgrades"},
			{Href: "/best", Label: "Best"},
		},
		Active: r.URL.Path,
	}
	store := s.svc.Store()
	if info, err := store.Info(); err == nil {
		c.Meta = append(c.Meta,
			render.Meta{Label: "Rows", Value: strconv.FormatInt(info.Rows, 10)},
			render.Meta{Label: "Source", Value: info.Type},
			render.Meta{Label: "Loaded", Value: info.LoadedAt.Format(time.DateTime)},
		)
		if info.Checksum != "" {
			c.Meta = append(c.Meta, render.Meta{Label: "xxh3", Value: info.Checksum})
		}
	}
	if payload, err := store.Asset(); err == nil && payload != nil {
		c.Links = append(c.Links, render.Link{
			Href:  dataset.ResolveAssetPath("/", payload.Name),
			Label: "Download",
		})
	}
	return c
}

// collect reads the filter of layout from the request. On a bad filter it
// falls back to the layout defaults so the page still renders.
func (s *server) collect(r *http.Request, layout minion.Layout, opts explorer.Options) (filter.Filter, error) {
	d := filter.Defaults{
		Layout:   layout,
		PageSize: s.cfg.UI.PageSize,
		CostMin:  opts.CostMin,
		CostMax:  opts.CostMax,
	}
	f, err := filter.Collect(r.URL.Query(), d)
	if err != nil {
		def, _ := filter.Collect(nil, d)
		return def, err
	}
	return f, nil
}

func (s *server) handleExplorer(layoutName string) http.HandlerFunc {
	layout, err := minion.LayoutByName(layoutName)
	if err != nil {
		panic(err)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		page := &render.Explorer{
			Chrome:     s.chrome(r),
			Path:       r.URL.Path,
			ExportPath: "/export.xlsx",
			Layout:     layout,
			Visibility: render.VisibilityFrom(layout, r.URL.Query()),
		}
		status := http.StatusOK

		opts, err := s.svc.Options(ctx, layout)
		if err != nil {
			status = statusFor(err)
			page.Error = err.Error()
			log.Error().Err(err).Str("layout", layout.Name).Msg("filter options failed")
		}
		page.Options = render.Options(opts)

		f, err := s.collect(r, layout, opts)
		page.Filter = f
		page.Pager = pager.New(0, f.PageSize, 1)
		if err != nil {
			status = statusFor(err)
			page.Error = err.Error()
		} else if result, err := s.svc.Page(ctx, f); err != nil {
			status = statusFor(err)
			page.Error = err.Error()
			log.Error().Err(err).Str("layout", layout.Name).Msg("query failed")
		} else {
			page.Results = result.Results
			page.Pager = result.Pager
		}

		writeHTML(w, status, page.Render)
	}
}

func (s *server) handleGrid(w http.ResponseWriter, r *http.Request) {
	page := &render.GridPage{Chrome: s.chrome(r), Path: r.URL.Path}
	status := http.StatusOK

	layout, _ := minion.LayoutByName("table")
	f, err := s.collect(r, layout, explorer.Options{})
	page.Types = f.MinionTypes
	if err != nil {
		status = statusFor(err)
		page.Error = err.Error()
	} else if page.Cells, err = s.svc.Grid(r.Context(), f.MinionTypes); err != nil {
		status = statusFor(err)
		page.Error = err.Error()
		log.Error().Err(err).Msg("grid query failed")
	}

	writeHTML(w, status, page.Render)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	layout, err := minion.LayoutByName(r.URL.Query().Get(render.ParamLayout))
	if err != nil {
		layout, _ = minion.LayoutByName("table")
	}
	opts, err := s.svc.Options(ctx, layout)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	f, err := s.collect(r, layout, opts)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	f.Page, f.PageSize = 1, s.cfg.UI.ExportLimit
	b, err := s.svc.Store().Builder()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	stmt, err := b.Select(f, 1, f.PageSize)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	results, err := s.svc.Results(ctx, stmt)
	if err != nil {
		log.Error().Err(err).Msg("export query failed")
		writeError(w, statusFor(err), err.Error())
		return
	}

	var buf bytes.Buffer
	if err := xlsx.Write(&buf, layout, results); err != nil {
		log.Error().Err(err).Msg("xlsx export failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="minions-%s.xlsx"`, layout.Name))
	w.Write(buf.Bytes())
}

// handleAsset serves the dataset file as it was loaded, decompressed.
func (s *server) handleAsset(w http.ResponseWriter, r *http.Request) {
	payload, err := s.svc.Store().Asset()
	if err != nil || payload == nil || chi.URLParam(r, "asset") != payload.Name {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("ETag", `"`+payload.Checksum+`"`)
	http.ServeContent(w, r, payload.Name, payload.Fetched, bytes.NewReader(payload.Data))
}

// ── JSON API ────────────────────────────────────────────────────────────────

func (s *server) apiFilter(w http.ResponseWriter, r *http.Request) (filter.Filter, bool) {
	layout, err := minion.LayoutByName(r.URL.Query().Get(render.ParamLayout))
	if err != nil {
		layout, _ = minion.LayoutByName("table")
	}
	var opts explorer.Options
	if layout.CostRange {
		if opts, err = s.svc.Options(r.Context(), layout); err != nil {
			writeError(w, statusFor(err), err.Error())
			return filter.Filter{}, false
		}
	}
	f, err := s.collect(r, layout, opts)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return filter.Filter{}, false
	}
	return f, true
}

func (s *server) handleAPIResults(w http.ResponseWriter, r *http.Request) {
	f, ok := s.apiFilter(w, r)
	if !ok {
		return
	}
	page, err := s.svc.Page(r.Context(), f)
	if err != nil {
		log.Error().Err(err).Msg("api results failed")
		writeError(w, statusFor(err), err.Error())
		return
	}
	if page.Results == nil {
		page.Results = []minion.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"filter": f, "pager": page.Pager, "results": page.Results})
}

func (s *server) handleAPICount(w http.ResponseWriter, r *http.Request) {
	f, ok := s.apiFilter(w, r)
	if !ok {
		return
	}
	b, err := s.svc.Store().Builder()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	stmt, err := b.Count(f)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	n, err := s.svc.Count(r.Context(), stmt)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total": n})
}

type bestCell struct {
	Cell        string          `json:"cell"`
	Budget      int64           `json:"budget"`
	Frequency   int             `json:"frequency"`
	Title       string          `json:"title"`
	Upgrades    string          `json:"upgrades,omitempty"`
	Strategy    minion.Strategy `json:"strategy"`
	DailyProfit float64         `json:"daily_profit"`
	PaybackDays float64         `json:"payback_days"`
	Color       string          `json:"color"`
	Result      minion.Result   `json:"result"`
}

func newBestCell(b *minion.Best) bestCell {
	return bestCell{
		Cell: b.CellID(), Budget: b.Budget, Frequency: b.Frequency,
		Title: b.Title(), Upgrades: b.Upgrades(), Strategy: b.Strategy,
		DailyProfit: b.DailyProfit, PaybackDays: b.PaybackDays, Color: b.Color(),
		Result: b.Result,
	}
}

// handleAPIBest returns one cell when budget and frequency are given, the
// whole grid otherwise.
func (s *server) handleAPIBest(w http.ResponseWriter, r *http.Request) {
	f, ok := s.apiFilter(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if f.Budget > 0 || f.Frequency > 0 {
		if f.Budget <= 0 || minion.FrequencyLabel(f.Frequency) == "" {
			writeError(w, http.StatusBadRequest, "budget and a grid frequency are both required")
			return
		}
		best, err := s.svc.Best(ctx, f.MinionTypes, f.Budget, f.Frequency)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		if best == nil {
			writeJSON(w, http.StatusOK, map[string]any{"cell": minion.CellID(f.Budget, f.Frequency), "result": nil})
			return
		}
		writeJSON(w, http.StatusOK, newBestCell(best))
		return
	}

	cells, err := s.svc.Grid(ctx, f.MinionTypes)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	out := make(map[string]bestCell, len(cells))
	for id, b := range cells {
		out[id] = newBestCell(b)
	}
	writeJSON(w, http.StatusOK, out)
}

// ── operational ─────────────────────────────────────────────────────────────

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz checks the dataset and, when configured, Redis.
func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"dataset": "ok", "cache": "ok"}
	status := http.StatusOK

	if _, err := s.svc.Store().Info(); err != nil {
		checks["dataset"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if s.cache == nil {
		checks["cache"] = "disabled"
	} else if err := s.cache.Ping(r.Context()); err != nil {
		checks["cache"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, checks)
}

// ── helpers ─────────────────────────────────────────────────────────────────

// statusFor maps bad filters to 400, a missing dataset to 503, the rest to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, filter.ErrUnknownColumn), errors.Is(err, filter.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeHTML(w http.ResponseWriter, status int, fn func(w io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		log.Error().Err(err).Msg("render failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
