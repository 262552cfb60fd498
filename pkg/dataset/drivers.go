package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // MS SQL Server driver
	_ "github.com/go-sql-driver/mysql"   // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib"   // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/core/query"
)

// opener открывает одну версию датасета
type opener func(ctx context.Context, cfg Config, payload *Payload) (*state, error)

type registration struct {
	open     opener
	external bool // подключение по DSN, ассет не загружается
}

var openers = map[string]registration{}

// register регистрирует тип источника
func register(kind string, open opener, external bool) {
	openers[kind] = registration{open: open, external: external}
}

func init() {
	register("sqlite", openSQLite, false)
	register("json", openJSON, false)
	register("postgres", external("pgx", query.Postgres), true)
	register("mysql", external("mysql", query.MySQL), true)
	register("mssql", external("sqlserver", query.MSSQL), true)
}

// Types возвращает зарегистрированные типы источников
func Types() []string {
	types := make([]string, 0, len(openers))
	for t := range openers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func openState(ctx context.Context, cfg Config) (*state, error) {
	kind := strings.ToLower(cfg.Type)

	if reg, ok := openers[kind]; ok && reg.external {
		if cfg.DSN == "" {
			return nil, fmt.Errorf("dataset type %s requires dsn", kind)
		}
		return reg.open(ctx, cfg, nil)
	}

	src := &Source{
		Location: cfg.Location,
		Checksum: cfg.Checksum,
		S3:       cfg.S3,
		Timeout:  cfg.Timeout,
		Retry:    cfg.Retry,
	}
	payload, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = string(payload.Format)
	}

	reg, ok := openers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: type %q (available types: %v)", ErrUnsupported, cfg.Type, Types())
	}
	st, err := reg.open(ctx, cfg, payload)
	if err != nil {
		return nil, err
	}
	st.payload = payload
	st.info.Type = kind
	st.info.Location = cfg.Location
	st.info.Checksum = payload.Checksum
	return st, nil
}

// openSQLite открывает файл базы только на чтение. Сжатый или удаленный
// ассет сначала записывается во временный файл.
func openSQLite(ctx context.Context, cfg Config, payload *Payload) (*state, error) {
	path := locationPath(cfg.Location)
	var cleanup func()

	direct := !strings.Contains(cfg.Location, "://") && filepath.Base(path) == payload.Name
	if !direct {
		f, err := os.CreateTemp(cfg.CacheDir, "minionview-*.db")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		if _, err := f.Write(payload.Data); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, fmt.Errorf("failed to write temp file: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(f.Name())
			return nil, fmt.Errorf("failed to close temp file: %w", err)
		}
		path = f.Name()
		name := f.Name()
		cleanup = func() { os.Remove(name) }
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=query_only(1)")
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &state{db: db, builder: query.New(query.SQLite), cleanup: cleanup}
	st.info.Dialect = query.SQLite
	if err := validate(ctx, st); err != nil {
		st.close()
		return nil, err
	}
	return st, nil
}

// openJSON загружает JSON массив строк в SQLite :memory: workspace
func openJSON(ctx context.Context, cfg Config, payload *Payload) (*state, error) {
	rows, err := DecodeJSON(payload.Data)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	// :memory: база живет в одном соединении
	db.SetMaxOpenConns(1)

	if err := Load(ctx, db, rows); err != nil {
		db.Close()
		return nil, err
	}

	st := &state{db: db, builder: query.New(query.SQLite)}
	st.info.Dialect = query.SQLite
	if err := validate(ctx, st); err != nil {
		st.close()
		return nil, err
	}
	return st, nil
}

func external(driver string, dialect query.Dialect) opener {
	return func(ctx context.Context, cfg Config, _ *Payload) (*state, error) {
		db, err := sqlx.Open(driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", dialect, err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping %s: %w", dialect, err)
		}
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}

		st := &state{db: db, builder: query.New(dialect)}
		st.info = Info{Type: string(dialect), Dialect: dialect, Location: redactDSN(cfg.DSN)}
		if err := validate(ctx, st); err != nil {
			st.close()
			return nil, err
		}
		return st, nil
	}
}

// redactDSN скрывает пароль в строке подключения для Info
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	creds := dsn[:at]
	if i := strings.Index(creds, "://"); i >= 0 {
		creds = creds[i+3:]
	}
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return dsn
	}
	start := at - len(creds) + colon + 1
	return dsn[:start] + "***" + dsn[at:]
}

// requiredJSON: колонки, без которых строка не проходит фильтры и сортировку.
// Отсутствующее поле иначе превратилось бы в ноль.
var requiredJSON = []string{"minion", "minion_level", "seconds", "profit_24h_only_hopper", "minion_cost_total"}

// DecodeJSON разбирает JSON массив строк таблицы
func DecodeJSON(data []byte) ([]minion.Result, error) {
	var fields []map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("malformed dataset JSON: %w", err)
	}
	for i, row := range fields {
		var missing []string
		for _, name := range requiredJSON {
			if _, ok := row[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: row %d has no %s columns", ErrSchema, i, strings.Join(missing, ", "))
		}
	}

	var rows []minion.Result
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("malformed dataset JSON: %w", err)
	}
	for i := range rows {
		if rows[i].ID == 0 {
			rows[i].ID = int64(i + 1)
		}
	}
	return rows, nil
}

// Load создает таблицу и вставляет строки одной транзакцией
func Load(ctx context.Context, db *sqlx.DB, rows []minion.Result) error {
	if _, err := db.ExecContext(ctx, minion.Schema); err != nil {
		return fmt.Errorf("failed to create table %s: %w", minion.Table, err)
	}
	if len(rows) == 0 {
		return nil
	}

	columns := minion.ColumnNames()
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		minion.Table,
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
	)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i].Values()...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WriteSQLite сохраняет строки в новый файл базы SQLite
func WriteSQLite(ctx context.Context, dst string, rows []minion.Result) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%s already exists", dst)
	}
	db, err := sqlx.Open("sqlite", dst)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", dst, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	return Load(ctx, db, rows)
}
