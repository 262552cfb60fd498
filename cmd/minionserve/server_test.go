package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/minionview/pkg/cache"
	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/dataset"
	"github.com/ruslano69/minionview/pkg/explorer"
)

func fixture() []minion.Result {
	return []minion.Result{
		{ID: 1, Minion: "Sheep", MinionLevel: 11, Fuel: minion.NewText("Catalyst"),
			StorageType: minion.NewText("Large"), Seconds: 86400, ProfitInstantBZ: 50_000, ProfitOnlyHopper: 40_000,
			CostTotal: 1_500_000, RawItemDrops: "{}", InInventory: "{}", SoldToHopper: "{}"},
		{ID: 2, Minion: "Sheep", MinionLevel: 12, Fuel: minion.NewText("None"), Seconds: 604800,
			ProfitInstantBZ: 10_000, ProfitOnlyHopper: 90_000, CostTotal: 4_000_000,
			RawItemDrops: "{}", InInventory: "{}", SoldToHopper: "{}"},
		{ID: 3, Minion: "Slime", MinionLevel: 11, Fuel: minion.NewText("Plasma Bucket"),
			StorageType: minion.NewText("Small"), Seconds: 86400,
			ProfitInstantBZ: 70_000, ProfitOnlyHopper: 10_000, CostTotal: 900_000,
			RawItemDrops: "{}", InInventory: "{}", SoldToHopper: "{}"},
	}
}

type testEnv struct {
	srv  *httptest.Server
	data []byte
}

func newTestEnv(t *testing.T, c *cache.Cache) *testEnv {
	t.Helper()
	data, err := json.Marshal(fixture())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	p := filepath.Join(t.TempDir(), "minions.json")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := defaultConfig()
	cfg.Dataset.Location = p
	store, err := dataset.Open(context.Background(), cfg.Dataset)
	if err != nil {
		t.Fatalf("dataset.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(newRouter(cfg, explorer.New(store, c), c))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, data: data}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp, string(body)
}

func TestExplorerPages(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		path   string
		status int
		want   []string
	}{
		{"table", "/", http.StatusOK, []string{"Minion combinations", "3 rows", "Page 1 of 1", "Slime"}},
		{"upgrades filtered", "/upgrades?filtered=1&fuel=Catalyst&storage=Large&storage=Small&seconds=86400", http.StatusOK,
			[]string{"Upgrades and costs", "1 rows", `name="min-cost"`, `href="/export.xlsx?`}},
		// отправленная форма без отмеченных fuel ничего не находит
		{"upgrades empty fuel", "/upgrades?filtered=1&storage=Large&seconds=86400", http.StatusOK,
			[]string{"No matching combinations", "0 rows"}},
		{"bad sort", "/?sort-column=bogus", http.StatusBadRequest,
			[]string{`<div class="error-bar">`, "unknown column"}},
		{"best", "/best", http.StatusOK,
			[]string{`<td id="2m-1d" style="background:#bdffbd">`, "T11 Slime Minion"}},
		{"best sheep", "/best?minion-type=Sheep-t11", http.StatusOK,
			[]string{`<td id="2m-1d" style="background:#f0e68c">`, `value="Sheep-t11" checked>`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.get(t, tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
			for _, w := range tt.want {
				if !strings.Contains(body, w) {
					t.Errorf("body missing %q", w)
				}
			}
		})
	}
}

func TestExplorerPages_GroupVisibility(t *testing.T) {
	env := newTestEnv(t, nil)

	// на "/" нет переключателей групп, после отправки формы колонки остаются
	_, body := env.get(t, "/?filtered=1&seconds=86400&seconds=604800")
	if strings.Contains(body, ` hidden"`) {
		t.Error("table layout hides column groups after submit")
	}
	if strings.Contains(body, `name="show-profit"`) {
		t.Error("table layout must not offer group toggles")
	}

	_, body = env.get(t, "/upgrades?filtered=1&storage=Large&storage=Small&fuel=Catalyst&seconds=86400")
	if !strings.Contains(body, ` hidden"`) {
		t.Error("upgrades layout must hide unchecked groups")
	}
}

func TestAPI(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/api/results?layout=upgrades&filtered=1&fuel=Catalyst&fuel=Plasma+Bucket&storage=Large&storage=Small&seconds=86400&sort-column=minion_cost_total&sort-order=asc")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results status = %d: %s", resp.StatusCode, body)
	}
	var results struct {
		Pager   struct{ Total int64 } `json:"pager"`
		Results []minion.Result       `json:"results"`
	}
	if err := json.Unmarshal([]byte(body), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if results.Pager.Total != 2 || len(results.Results) != 2 || results.Results[0].ID != 3 {
		t.Errorf("results = %+v", results)
	}

	_, body = env.get(t, "/api/count?minion=sheep")
	if strings.TrimSpace(body) != `{"total":2}` {
		t.Errorf("count = %s", body)
	}

	_, body = env.get(t, "/api/best?budget=2000000&frequency=86400")
	var cell bestCell
	if err := json.Unmarshal([]byte(body), &cell); err != nil {
		t.Fatalf("decode best: %v", err)
	}
	if cell.Cell != "2m-1d" || cell.Title != "T11 Slime Minion" || cell.Strategy != minion.StrategyBazaar {
		t.Errorf("best = %+v", cell)
	}

	_, body = env.get(t, "/api/best")
	var grid map[string]bestCell
	if err := json.Unmarshal([]byte(body), &grid); err != nil {
		t.Fatalf("decode grid: %v", err)
	}
	if _, ok := grid["5m-7d"]; !ok || len(grid) == 0 {
		t.Errorf("grid cells = %d, 5m-7d present = %v", len(grid), ok)
	}

	errorCases := []string{
		"/api/best?budget=2000000",
		"/api/results?sort-column=bogus",
		"/api/results?layout=upgrades&filtered=1&upgrade=turbo",
	}
	for _, path := range errorCases {
		if resp, body := env.get(t, path); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET %s = %d (%s), want 400", path, resp.StatusCode, body)
		}
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/export.xlsx?layout=upgrades&filtered=1&seconds=86400&fuel=Catalyst&fuel=Plasma+Bucket&storage=Large&storage=Small")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "minions-upgrades.xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	f, err := excelize.OpenReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("upgrades")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	// заголовок + 2 строки за сутки
	if len(rows) != 3 {
		t.Errorf("rows = %d, want 3", len(rows))
	}
}

func TestAsset(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/data/minions.json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body != string(env.data) {
		t.Error("asset body differs from the dataset file")
	}
	if resp.Header.Get("ETag") == "" {
		t.Error("missing ETag")
	}

	if resp, _ := env.get(t, "/data/other.db"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown asset status = %d", resp.StatusCode)
	}

	_, page := env.get(t, "/")
	if !strings.Contains(page, `href="/data/minions.json"`) {
		t.Error("navbar must link the dataset download")
	}
}

func TestAsset_Compressed(t *testing.T) {
	data, _ := json.Marshal(fixture())
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(data)
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	p := filepath.Join(t.TempDir(), "minions.json.gz")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := defaultConfig()
	cfg.Dataset.Location = p
	svc := loadDataset(context.Background(), cfg, nil)
	t.Cleanup(func() { svc.Store().Close() })
	srv := httptest.NewServer(newRouter(cfg, svc, nil))
	t.Cleanup(srv.Close)
	env := &testEnv{srv: srv}

	// ассет отдается распакованным под именем без .gz
	resp, body := env.get(t, "/data/minions.json")
	if resp.StatusCode != http.StatusOK || body != string(data) {
		t.Errorf("asset = %d, %d bytes", resp.StatusCode, len(body))
	}
	if etag := resp.Header.Get("ETag"); etag != `"`+dataset.Checksum(buf.Bytes())+`"` {
		t.Errorf("ETag = %s", etag)
	}
	if resp, _ := env.get(t, "/data/minions.json.gz"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("compressed name status = %d", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	if resp, body := env.get(t, "/healthz"); resp.StatusCode != http.StatusOK || !strings.Contains(body, "ok") {
		t.Errorf("healthz = %d %s", resp.StatusCode, body)
	}
	resp, body := env.get(t, "/readyz")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"cache":"disabled"`) {
		t.Errorf("readyz = %d %s", resp.StatusCode, body)
	}

	env.get(t, "/")
	_, body = env.get(t, "/metrics")
	for _, name := range []string{"minionview_queries_total", "minionview_query_duration_seconds"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics missing %s", name)
		}
	}
}

func TestLoadDataset_Degraded(t *testing.T) {
	cfg := defaultConfig()
	cfg.Dataset.Location = filepath.Join(t.TempDir(), "missing.json")

	svc := loadDataset(context.Background(), cfg, nil)
	t.Cleanup(func() { svc.Store().Close() })
	srv := httptest.NewServer(newRouter(cfg, svc, nil))
	t.Cleanup(srv.Close)
	env := &testEnv{srv: srv}

	for _, path := range []string{"/", "/upgrades", "/best"} {
		resp, body := env.get(t, path)
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, resp.StatusCode)
		}
		if !strings.Contains(body, `<div class="error-bar">`) || !strings.Contains(body, "dataset not loaded") {
			t.Errorf("%s must render the error bar", path)
		}
	}
	if resp, body := env.get(t, "/readyz"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d %s", resp.StatusCode, body)
	}

	// после появления ассета перезагрузка восстанавливает работу
	data, _ := json.Marshal(fixture())
	if err := os.WriteFile(cfg.Dataset.Location, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if resp, body := env.get(t, "/"); resp.StatusCode != http.StatusOK || !strings.Contains(body, "3 rows") {
		t.Errorf("after reload = %d", resp.StatusCode)
	}
}

func TestReadyz_CacheDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	c := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)
	env := newTestEnv(t, c)

	if resp, body := env.get(t, "/readyz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz = %d %s", resp.StatusCode, body)
	}
	// страница работает через кеш
	if resp, _ := env.get(t, "/"); resp.StatusCode != http.StatusOK {
		t.Errorf("page status = %d", resp.StatusCode)
	}
	if len(mr.Keys()) == 0 {
		t.Error("expected cached queries")
	}

	mr.Close()
	if resp, _ := env.get(t, "/readyz"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readyz with redis down = %d, want 503", resp.StatusCode)
	}
	// без Redis запросы идут в датасет
	if resp, _ := env.get(t, "/"); resp.StatusCode != http.StatusOK {
		t.Errorf("page status with redis down = %d", resp.StatusCode)
	}
}
