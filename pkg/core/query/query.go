// Package query строит параметризованные SELECT запросы к таблице результатов
// симуляции по состоянию формы фильтров.
package query

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/zeebo/xxh3"
)

// Dialect: диалект SQL целевой базы
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	MSSQL    Dialect = "mssql"
)

// ParseDialect проверяет имя диалекта
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(name))); d {
	case SQLite, Postgres, MySQL, MSSQL:
		return d, nil
	case "":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported dialect: %s", name)
	}
}

// bindType возвращает стиль плейсхолдеров sqlx для диалекта.
// Имена драйверов подобраны под таблицу sqlx.BindType.
func (d Dialect) bindType() int {
	switch d {
	case Postgres:
		return sqlx.BindType("pgx")
	case MSSQL:
		return sqlx.BindType("sqlserver")
	default:
		return sqlx.QUESTION
	}
}

// Quote экранирует идентификатор (колонку или таблицу)
func (d Dialect) Quote(ident string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	case MSSQL:
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// Statement: SQL с аргументами, готовый к выполнению
type Statement struct {
	SQL  string
	Args []any
}

// Key возвращает xxh3 хеш SQL и аргументов (hex) для ключей кеша
func (s Statement) Key() string {
	var b strings.Builder
	b.WriteString(s.SQL)
	for _, a := range s.Args {
		fmt.Fprintf(&b, "\x00%T=%v", a, a)
	}
	h := xxh3.Hash([]byte(b.String()))
	return hex.EncodeToString([]byte{
		byte(h >> 56), byte(h >> 48), byte(h >> 40), byte(h >> 32),
		byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h),
	})
}

func (s Statement) String() string {
	return fmt.Sprintf("%s %v", s.SQL, s.Args)
}
