package pager

import "fmt"

// DefaultPageSize: размер страницы по умолчанию
const DefaultPageSize = 20

// Pager содержит состояние постраничной навигации
type Pager struct {
	Total      int64 `json:"total"`       // строк после фильтров
	PageSize   int   `json:"page_size"`
	Page       int   `json:"page"`        // 1-based
	TotalPages int   `json:"total_pages"`
}

// New вычисляет число страниц по результату COUNT(*).
// Номер страницы меньше 1 приводится к 1, размер страницы <= 0 к DefaultPageSize.
func New(total int64, pageSize, page int) Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pager{Total: total, PageSize: pageSize, Page: page, TotalPages: pages}
}

// Offset возвращает OFFSET для текущей страницы
func (p Pager) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// HasPrev: кнопка "назад" активна
func (p Pager) HasPrev() bool {
	return p.Page > 1
}

// HasNext: кнопка "вперед" активна
func (p Pager) HasNext() bool {
	return p.Page < p.TotalPages
}

// Prev возвращает номер предыдущей страницы (не меньше 1)
func (p Pager) Prev() int {
	if !p.HasPrev() {
		return 1
	}
	return p.Page - 1
}

// Next возвращает номер следующей страницы (не больше последней)
func (p Pager) Next() int {
	if !p.HasNext() {
		return p.Page
	}
	return p.Page + 1
}

// Label: подпись вида "Page 2 of 3"
func (p Pager) Label() string {
	return fmt.Sprintf("Page %d of %d", p.Page, p.TotalPages)
}
