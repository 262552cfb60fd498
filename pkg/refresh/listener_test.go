package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ruslano69/minionview/pkg/retry"
)

// fakeBroker отдает сообщения из канала
type fakeBroker struct {
	msgs        chan []byte
	failConnect int32 // сколько первых Connect вернут ошибку
	dropAfter   int32 // Receive вернет ошибку после стольких сообщений (0 = никогда)
	failReceive bool  // Receive всегда возвращает ошибку

	connects atomic.Int32
	received atomic.Int32
	acks     atomic.Int32
	closes   atomic.Int32
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{msgs: make(chan []byte, 10)}
}

func (f *fakeBroker) Connect(ctx context.Context) error {
	if f.connects.Add(1) <= f.failConnect {
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeBroker) Receive(ctx context.Context) ([]byte, error) {
	if f.failReceive {
		return nil, errors.New("fetch failed")
	}
	if f.dropAfter > 0 && f.received.Load() == f.dropAfter {
		f.dropAfter = 0
		return nil, errors.New("connection reset")
	}
	select {
	case m := <-f.msgs:
		f.received.Add(1)
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeBroker) Ack(ctx context.Context) error {
	f.acks.Add(1)
	return nil
}

func (f *fakeBroker) Close() error {
	f.closes.Add(1)
	return nil
}

type countingReloader struct {
	mu    sync.Mutex
	calls int
	err   error
	done  chan struct{}
	want  int
}

func (r *countingReloader) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls == r.want {
		close(r.done)
	}
	return r.err
}

var fastRetry = retry.Config{MaxAttempts: 5, Initial: time.Millisecond, Max: 5 * time.Millisecond}

func runListener(t *testing.T, l *Listener) (cancel func() error) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	return func() error {
		stop()
		select {
		case err := <-errc:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("listener did not stop")
			return nil
		}
	}
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reloads")
	}
}

func TestListener_ReloadsPerMessage(t *testing.T) {
	b := newFakeBroker()
	b.failConnect = 2
	target := &countingReloader{done: make(chan struct{}), want: 2}

	stop := runListener(t, NewListener(b, target, fastRetry))
	b.msgs <- []byte(`{"asset":"sheep_minion_combinations.db"}`)
	b.msgs <- []byte("reload")
	waitDone(t, target.done)

	if err := stop(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if got := b.connects.Load(); got != 3 {
		t.Errorf("connects = %d, want 3", got)
	}
	if got := b.acks.Load(); got != 2 {
		t.Errorf("acks = %d, want 2", got)
	}
}

func TestListener_ReloadErrorStillAcks(t *testing.T) {
	b := newFakeBroker()
	target := &countingReloader{done: make(chan struct{}), want: 1, err: errors.New("bad asset")}

	stop := runListener(t, NewListener(b, target, fastRetry))
	b.msgs <- []byte("reload")
	waitDone(t, target.done)
	stop()

	if got := b.acks.Load(); got != 1 {
		t.Errorf("acks = %d, want 1", got)
	}
}

func TestListener_Reconnects(t *testing.T) {
	b := newFakeBroker()
	b.dropAfter = 1
	target := &countingReloader{done: make(chan struct{}), want: 2}

	stop := runListener(t, NewListener(b, target, fastRetry))
	b.msgs <- []byte("one")
	b.msgs <- []byte("two")
	waitDone(t, target.done)
	stop()

	if got := b.connects.Load(); got != 2 {
		t.Errorf("connects = %d, want 2 (reconnect after drop)", got)
	}
	if got := b.closes.Load(); got < 2 {
		t.Errorf("closes = %d, want >= 2", got)
	}
}

func TestListener_ReconnectBackoff(t *testing.T) {
	b := newFakeBroker()
	b.failReceive = true
	rc := retry.Config{Initial: 20 * time.Millisecond, Max: 20 * time.Millisecond, Backoff: retry.BackoffConstant}

	stop := runListener(t, NewListener(b, &countingReloader{}, rc))
	time.Sleep(110 * time.Millisecond)
	if err := stop(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// без паузы цикл переподключается тысячи раз
	if got := b.connects.Load(); got < 2 || got > 10 {
		t.Errorf("connects = %d, want 2..10 with 20ms between reconnects", got)
	}
}

func TestListener_GivesUp(t *testing.T) {
	b := newFakeBroker()
	b.failConnect = 100
	rc := retry.Config{MaxAttempts: 3, Initial: time.Millisecond, Max: time.Millisecond}

	err := NewListener(b, &countingReloader{}, rc).Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, retry.ErrMaxAttempts) {
		t.Errorf("err = %v, want ErrMaxAttempts", err)
	}
	if got := b.connects.Load(); got != 3 {
		t.Errorf("connects = %d, want 3", got)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{Type: "kafka", Topic: "minionview.reload", Brokers: []string{"localhost:9092"}}); err != nil {
		t.Errorf("kafka: %v", err)
	}
	if _, err := New(Config{Type: "kafka"}); err == nil {
		t.Error("kafka without topic must fail")
	}
	if _, err := New(Config{Type: "rabbitmq"}); err == nil {
		t.Error("rabbitmq without queue must fail")
	}
	if _, err := New(Config{Type: "msmq"}); err == nil {
		t.Error("unsupported type must fail")
	}
	k, _ := NewKafka(Config{Topic: "t", Brokers: []string{"b"}})
	if k.config.Group != defaultGroup {
		t.Errorf("group = %q", k.config.Group)
	}
}
