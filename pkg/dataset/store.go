// Package dataset загружает ассет с результатами симуляции и выполняет
// запросы к нему. Датасет только читается; Reload атомарно подменяет его.
package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ruslano69/minionview/pkg/core/filter"
	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/core/query"
	"github.com/ruslano69/minionview/pkg/retry"
)

var (
	// ErrNotLoaded: хранилище закрыто или датасет не загружен
	ErrNotLoaded = errors.New("dataset not loaded")
	// ErrUnsupported: неизвестный тип источника или формат ассета
	ErrUnsupported = errors.New("unsupported dataset")
	// ErrSchema: в ассете нет обязательных колонок MinionSimulationResult
	ErrSchema = errors.New("dataset schema mismatch")
)

// Config описывает источник датасета
type Config struct {
	// Type: sqlite, json, postgres, mysql, mssql.
	// Пусто = определить по ассету.
	Type     string        `yaml:"type"`
	Location string        `yaml:"location"` // путь, http(s):// или s3:// для sqlite/json
	DSN      string        `yaml:"dsn"`      // строка подключения для внешних СУБД
	Checksum string        `yaml:"checksum"` // ожидаемый xxh3 ассета
	S3       S3Config      `yaml:"s3"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheDir string        `yaml:"cache_dir"` // куда распаковывать удаленные sqlite файлы

	MaxOpenConns int `yaml:"max_open_conns"`

	Retry retry.Config `yaml:"-"`
}

// Info: сведения о загруженном датасете
type Info struct {
	Type     string        `json:"type"`
	Dialect  query.Dialect `json:"dialect"`
	Location string        `json:"location"`
	Checksum string        `json:"checksum,omitempty"`
	Rows     int64         `json:"rows"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// state: одна загруженная версия датасета
type state struct {
	db      *sqlx.DB
	builder *query.Builder
	payload *Payload
	info    Info
	cleanup func()
}

func (st *state) close() error {
	err := st.db.Close()
	if st.cleanup != nil {
		st.cleanup()
	}
	return err
}

// Store держит текущую версию датасета
type Store struct {
	open func(ctx context.Context) (*state, error)

	mu  sync.RWMutex
	cur *state
}

// New создает хранилище без загруженной версии. До первого успешного
// Reload запросы возвращают ErrNotLoaded.
func New(cfg Config) *Store {
	return &Store{open: func(ctx context.Context) (*state, error) { return openState(ctx, cfg) }}
}

// Open загружает датасет по конфигурации
func Open(ctx context.Context, cfg Config) (*Store, error) {
	s := New(cfg)
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenDB оборачивает уже открытое подключение
func OpenDB(ctx context.Context, db *sqlx.DB, dialect query.Dialect, location string) (*Store, error) {
	s := &Store{open: func(ctx context.Context) (*state, error) {
		st := &state{
			db:      db,
			builder: query.New(dialect),
			info:    Info{Type: string(dialect), Dialect: dialect, Location: location},
		}
		if err := validate(ctx, st); err != nil {
			return nil, err
		}
		return st, nil
	}}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload загружает датасет заново и подменяет текущую версию.
// При ошибке остается прежняя версия.
func (s *Store) Reload(ctx context.Context) error {
	next, err := s.open(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.cur
	s.cur = next
	s.mu.Unlock()

	// Читатели держат RLock на время запроса, после Lock старая версия свободна
	if prev != nil && prev.db != next.db {
		prev.close()
	}
	return nil
}

// Close закрывает текущую версию
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	err := s.cur.close()
	s.cur = nil
	return err
}

// Info возвращает сведения о текущей версии
func (s *Store) Info() (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return Info{}, ErrNotLoaded
	}
	return s.cur.info, nil
}

// Builder возвращает построитель запросов под диалект текущей версии
func (s *Store) Builder() (*query.Builder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return nil, ErrNotLoaded
	}
	return s.cur.builder, nil
}

// Asset возвращает ассет как он был загружен (nil для внешних СУБД)
func (s *Store) Asset() (*Payload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return nil, ErrNotLoaded
	}
	return s.cur.payload, nil
}

// withDB выполняет fn над текущей версией под RLock
func (s *Store) withDB(fn func(db *sqlx.DB, b *query.Builder) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return ErrNotLoaded
	}
	return fn(s.cur.db, s.cur.builder)
}

// Results выполняет SELECT и сканирует строки по именам колонок
func (s *Store) Results(ctx context.Context, stmt query.Statement) ([]minion.Result, error) {
	var out []minion.Result
	err := s.withDB(func(db *sqlx.DB, _ *query.Builder) error {
		if err := db.SelectContext(ctx, &out, stmt.SQL, stmt.Args...); err != nil {
			return fmt.Errorf("select results: %w", err)
		}
		return nil
	})
	return out, err
}

// Count выполняет COUNT(*)
func (s *Store) Count(ctx context.Context, stmt query.Statement) (int64, error) {
	var n int64
	err := s.withDB(func(db *sqlx.DB, _ *query.Builder) error {
		if err := db.GetContext(ctx, &n, stmt.SQL, stmt.Args...); err != nil {
			return fmt.Errorf("count results: %w", err)
		}
		return nil
	})
	return n, err
}

// Best возвращает первую строку запроса или nil, если строк нет
func (s *Store) Best(ctx context.Context, stmt query.Statement) (*minion.Result, error) {
	var r minion.Result
	err := s.withDB(func(db *sqlx.DB, _ *query.Builder) error {
		return db.GetContext(ctx, &r, stmt.SQL, stmt.Args...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("best result: %w", err)
	}
	return &r, nil
}

// Distinct возвращает уникальные значения колонки; "None" пропускается
func (s *Store) Distinct(ctx context.Context, column string) ([]string, error) {
	var out []string
	err := s.withDB(func(db *sqlx.DB, b *query.Builder) error {
		stmt, err := b.Distinct(column)
		if err != nil {
			return err
		}
		var values []minion.Text
		if err := db.SelectContext(ctx, &values, stmt.SQL, stmt.Args...); err != nil {
			return fmt.Errorf("distinct %s: %w", column, err)
		}
		for _, v := range values {
			if !v.Blank() {
				out = append(out, v.String)
			}
		}
		return nil
	})
	return out, err
}

// Bounds возвращает минимум и максимум числовой колонки
func (s *Store) Bounds(ctx context.Context, column string) (lo, hi float64, err error) {
	err = s.withDB(func(db *sqlx.DB, b *query.Builder) error {
		stmt, err := b.Bounds(column)
		if err != nil {
			return err
		}
		var row struct {
			Lo sql.NullFloat64 `db:"lo"`
			Hi sql.NullFloat64 `db:"hi"`
		}
		if err := db.GetContext(ctx, &row, stmt.SQL, stmt.Args...); err != nil {
			return fmt.Errorf("bounds %s: %w", column, err)
		}
		lo, hi = row.Lo.Float64, row.Hi.Float64
		return nil
	})
	return lo, hi, err
}

// validate проверяет наличие таблицы и считает строки
func validate(ctx context.Context, st *state) error {
	stmt, err := st.builder.Count(filter.Filter{})
	if err != nil {
		return err
	}
	if err := st.db.GetContext(ctx, &st.info.Rows, stmt.SQL, stmt.Args...); err != nil {
		return fmt.Errorf("dataset has no readable %s table: %w", st.builder.Table, err)
	}
	st.info.LoadedAt = time.Now()
	return nil
}
