package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/core/query"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, ttl), mr
}

var stmt = query.Statement{SQL: `SELECT * FROM "MinionSimulationResult" WHERE "seconds" IN (?)`, Args: []any{86400}}

func TestResults_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	if _, ok, err := c.GetResults(ctx, "abc", stmt); ok || err != nil {
		t.Fatalf("GetResults on empty cache = ok %v, err %v", ok, err)
	}

	rows := []minion.Result{
		{ID: 7, Minion: "Sheep", MinionLevel: 11, Fuel: minion.NewText("Catalyst"), Seconds: 86400, CostTotal: 1_500_000},
		{ID: 8, Minion: "Slime", MinionLevel: 11, Seconds: 86400},
	}
	if err := c.SetResults(ctx, "abc", stmt, rows); err != nil {
		t.Fatalf("SetResults: %v", err)
	}
	got, ok, err := c.GetResults(ctx, "abc", stmt)
	if err != nil || !ok {
		t.Fatalf("GetResults = ok %v, err %v", ok, err)
	}
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	// Другой датасет не видит чужие строки
	if _, ok, _ := c.GetResults(ctx, "def", stmt); ok {
		t.Error("results leaked across dataset checksums")
	}
}

func TestCount_RoundTripAndTTL(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	if err := c.SetCount(ctx, "abc", stmt, 45); err != nil {
		t.Fatalf("SetCount: %v", err)
	}
	n, ok, err := c.GetCount(ctx, "abc", stmt)
	if err != nil || !ok || n != 45 {
		t.Fatalf("GetCount = %d, %v, %v", n, ok, err)
	}

	key := Key("abc", stmt) + ":count"
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := c.GetCount(ctx, "abc", stmt); ok {
		t.Error("count must expire after TTL")
	}
}

func TestKey(t *testing.T) {
	k := Key("0123456789abcdef", stmt)
	if !strings.HasPrefix(k, "minionview:0123456789abcdef:") {
		t.Errorf("Key = %q", k)
	}
	if k != Key("0123456789abcdef", query.Statement{SQL: stmt.SQL, Args: []any{86400}}) {
		t.Error("Key must be stable for equal statements")
	}
	if k == Key("0123456789abcdef", query.Statement{SQL: stmt.SQL, Args: []any{3600}}) {
		t.Error("Key must depend on arguments")
	}
	if !strings.HasPrefix(Key("", stmt), "minionview:-:") {
		t.Errorf("Key without checksum = %q", Key("", stmt))
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	if err := c.SetResults(ctx, "x", stmt, nil); err != nil {
		t.Errorf("SetResults: %v", err)
	}
	if _, ok, err := c.GetResults(ctx, "x", stmt); ok || err != nil {
		t.Errorf("GetResults = %v, %v", ok, err)
	}
	if _, ok, err := c.GetCount(ctx, "x", stmt); ok || err != nil {
		t.Errorf("GetCount = %v, %v", ok, err)
	}
	if err := c.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	c, err := Open(ctx, Config{})
	if err != nil || c != nil {
		t.Fatalf("disabled Open = %v, %v", c, err)
	}

	mr := miniredis.RunT(t)
	c, err = Open(ctx, Config{Enabled: true, Address: mr.Addr()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want default", c.ttl)
	}

	if _, err := Open(ctx, Config{Enabled: true, Address: "127.0.0.1:1"}); err == nil {
		t.Error("expected ping error")
	}
}

func TestGetResults_Corrupt(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	if err := mr.Set(Key("abc", stmt), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok, err := c.GetResults(context.Background(), "abc", stmt); ok || err == nil {
		t.Errorf("GetResults = ok %v, err %v; want decode error", ok, err)
	}
}
