package query

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ruslano69/minionview/pkg/core/filter"
	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/core/pager"
)

// never: условие, не совпадающее ни с одной строкой.
// Используется для пустого множественного выбора вместо недопустимого IN ().
const never = "1 = 0"

// Builder конвертирует filter.Filter в SQL
type Builder struct {
	Dialect Dialect
	Table   string
}

// New создает построитель для таблицы результатов симуляции
func New(d Dialect) *Builder {
	return &Builder{Dialect: d, Table: minion.Table}
}

// Select строит запрос страницы результатов
func (b *Builder) Select(f filter.Filter, page, pageSize int) (Statement, error) {
	where, args, err := b.where(f)
	if err != nil {
		return Statement{}, err
	}
	orderBy, err := b.orderBy(f.Sort)
	if err != nil {
		return Statement{}, err
	}

	if pageSize <= 0 {
		pageSize = pager.DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	parts := []string{b.selectFrom()}
	if where != "" {
		parts = append(parts, "WHERE "+where)
	}
	parts = append(parts, "ORDER BY "+orderBy)
	parts = append(parts, b.paginate(pageSize, (page-1)*pageSize))

	return b.statement(parts, args), nil
}

// Count строит COUNT(*) с теми же условиями что и Select
func (b *Builder) Count(f filter.Filter) (Statement, error) {
	where, args, err := b.where(f)
	if err != nil {
		return Statement{}, err
	}
	parts := []string{"SELECT COUNT(*) FROM " + b.Dialect.Quote(b.Table)}
	if where != "" {
		parts = append(parts, "WHERE "+where)
	}
	return b.statement(parts, args), nil
}

// Best строит запрос лучшей комбинации для ячейки сетки:
// стоимость не выше бюджета, заданная частота сбора, максимум из
// прибыли мгновенной продажи и прибыли ehopper.
func (b *Builder) Best(types []string, budget int64, frequency int) (Statement, error) {
	q := b.Dialect.Quote
	var conditions []string
	var args []any

	typeCond, typeArgs, err := b.minionTypes(types)
	if err != nil {
		return Statement{}, err
	}
	if typeCond != "" {
		conditions = append(conditions, typeCond)
		args = append(args, typeArgs...)
	}
	conditions = append(conditions, q("minion_cost_total")+" <= ?", q("seconds")+" = ?")
	args = append(args, budget, frequency)

	instant := q("profit_24h_if_inventory_instant_sold_to_bz")
	ehopper := q("profit_24h_only_hopper")
	parts := []string{
		b.selectFrom(),
		"WHERE " + strings.Join(conditions, " AND "),
		fmt.Sprintf("ORDER BY CASE WHEN %s > %s THEN %s ELSE %s END DESC", instant, ehopper, instant, ehopper),
		b.paginate(1, 0),
	}
	return b.statement(parts, args), nil
}

// Distinct строит список уникальных непустых значений колонки
func (b *Builder) Distinct(column string) (Statement, error) {
	if _, ok := minion.Lookup(column); !ok {
		return Statement{}, fmt.Errorf("%w: %q", filter.ErrUnknownColumn, column)
	}
	c := b.Dialect.Quote(column)
	sql := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s",
		c, b.Dialect.Quote(b.Table), c, c)
	return Statement{SQL: sql}, nil
}

// Bounds строит MIN/MAX числовой колонки (для шкалы слайдера)
func (b *Builder) Bounds(column string) (Statement, error) {
	c, ok := minion.Lookup(column)
	if !ok {
		return Statement{}, fmt.Errorf("%w: %q", filter.ErrUnknownColumn, column)
	}
	switch c.Kind {
	case minion.KindInt, minion.KindMoney, minion.KindPercent, minion.KindDuration:
	default:
		return Statement{}, fmt.Errorf("column %q is not numeric", column)
	}
	q := b.Dialect.Quote(column)
	sql := fmt.Sprintf("SELECT MIN(%s) AS lo, MAX(%s) AS hi FROM %s", q, q, b.Dialect.Quote(b.Table))
	return Statement{SQL: sql}, nil
}

func (b *Builder) selectFrom() string {
	names := minion.ColumnNames()
	cols := make([]string, len(names))
	for i, n := range names {
		cols[i] = b.Dialect.Quote(n)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), b.Dialect.Quote(b.Table))
}

func (b *Builder) paginate(limit, offset int) string {
	// MS SQL не поддерживает LIMIT
	if b.Dialect == MSSQL {
		return fmt.Sprintf("OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", offset, limit)
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

func (b *Builder) statement(parts []string, args []any) Statement {
	sql := strings.Join(parts, " ")
	return Statement{SQL: sqlx.Rebind(b.Dialect.bindType(), sql), Args: args}
}

// where собирает условия фильтра через AND
func (b *Builder) where(f filter.Filter) (string, []any, error) {
	q := b.Dialect.Quote
	var conditions []string
	var args []any

	// Подстрока в имени миньона
	if f.Minion != "" && !strings.EqualFold(f.Minion, filter.AllMinions) {
		conditions = append(conditions, q("minion")+" LIKE ?")
		args = append(args, "%"+f.Minion+"%")
	}

	// Временные интервалы
	if f.Timescales != nil {
		values := make([]any, len(f.Timescales))
		for i, ts := range f.Timescales {
			values[i] = ts
		}
		cond, a := in(q("seconds"), values)
		conditions = append(conditions, cond)
		args = append(args, a...)
	}

	// Невыбранные улучшения должны отсутствовать
	if f.Upgrades != nil {
		for _, u := range minion.UpgradeFlags {
			if filter.Selected(f.Upgrades, u.Name) {
				continue
			}
			conditions = append(conditions, q(u.Name)+" = ?")
			args = append(args, false)
		}
	}

	if f.Fuels != nil {
		cond, a := in(q("fuel"), strings2any(f.Fuels))
		conditions = append(conditions, cond)
		args = append(args, a...)
	}

	if f.Storages != nil {
		cond, a := in(q("storagetype"), strings2any(f.Storages))
		conditions = append(conditions, cond)
		args = append(args, a...)
	}

	// Исключенные предметы не должны стоять ни в одном слоте
	if len(f.UnselectedItems) > 0 {
		for _, col := range []string{"item_1", "item_2"} {
			c := q(col)
			cond := fmt.Sprintf("(%s IS NULL OR %s NOT IN (%s))", c, c, placeholders(len(f.UnselectedItems)))
			conditions = append(conditions, cond)
			args = append(args, strings2any(f.UnselectedItems)...)
		}
	}

	if f.Cost != nil {
		conditions = append(conditions, q("minion_cost_total")+" BETWEEN ? AND ?")
		args = append(args, f.Cost.From, f.Cost.To)
	}

	typeCond, typeArgs, err := b.minionTypes(f.MinionTypes)
	if err != nil {
		return "", nil, err
	}
	if typeCond != "" {
		conditions = append(conditions, typeCond)
		args = append(args, typeArgs...)
	}

	if len(conditions) == 0 {
		return "", nil, nil
	}
	return strings.Join(conditions, " AND "), args, nil
}

// minionTypes конвертирует "Sheep-t11" в (minion = ? AND minion_level = ?),
// варианты объединяются через OR
func (b *Builder) minionTypes(types []string) (string, []any, error) {
	if len(types) == 0 {
		return "", nil, nil
	}
	q := b.Dialect.Quote
	var alternatives []string
	var args []any
	for _, t := range types {
		if strings.EqualFold(t, "all") {
			return "", nil, nil
		}
		name, level, err := filter.ParseMinionType(t)
		if err != nil {
			return "", nil, err
		}
		if level > 0 {
			alternatives = append(alternatives, fmt.Sprintf("(%s = ? AND %s = ?)", q("minion"), q("minion_level")))
			args = append(args, name, level)
		} else {
			alternatives = append(alternatives, q("minion")+" = ?")
			args = append(args, name)
		}
	}
	return "(" + strings.Join(alternatives, " OR ") + ")", args, nil
}

func (b *Builder) orderBy(s filter.Sort) (string, error) {
	if !minion.IsSortable(s.Column) {
		return "", fmt.Errorf("%w: %q", filter.ErrUnknownColumn, s.Column)
	}
	direction := filter.Desc
	if s.Order == filter.Asc {
		direction = filter.Asc
	}
	return fmt.Sprintf("%s %s", b.Dialect.Quote(s.Column), direction), nil
}

// in строит field IN (?, ...). Пустой набор дает never.
func in(field string, values []any) (string, []any) {
	if len(values) == 0 {
		return never, nil
	}
	return fmt.Sprintf("%s IN (%s)", field, placeholders(len(values))), values
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func strings2any(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
