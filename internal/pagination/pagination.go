// Package pagination parses list query parameters and applies them as gorm scopes.
package pagination

import (
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Sort     string `form:"sort"`
}

// Defaults fills in default values when page or page_size are not provided.
func (p *PageRequest) Defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = 20
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// OrderClause maps the sort parameter to an ORDER BY clause. A leading "-"
// sorts descending. Unknown columns fall back to def.
func (p *PageRequest) OrderClause(allowed map[string]string, def string) string {
	key := p.Sort
	dir := "ASC"
	if strings.HasPrefix(key, "-") {
		key = key[1:]
		dir = "DESC"
	}
	col, ok := allowed[key]
	if !ok {
		return def
	}
	return col + " " + dir
}

// PageResponse wraps a paginated list of items with metadata.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, page, pageSize int, totalItems int64) PageResponse[T] {
	totalPages := int(math.Ceil(float64(totalItems) / float64(pageSize)))
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PageSize)
	}
}

// DateRange filters records by an inclusive date column range. Both bounds
// are instants; callers holding a whole "hasta" day pass EndOfDay.
type DateRange struct {
	From *time.Time `form:"desde" time_format:"2006-01-02"`
	To   *time.Time `form:"hasta" time_format:"2006-01-02"`
}

// Valid reports whether the range is empty or ordered.
func (r DateRange) Valid() bool {
	return r.From == nil || r.To == nil || !r.To.Before(*r.From)
}

// EndOfDay returns the last microsecond of t's calendar day in t's location.
// Postgres timestamps hold microseconds, so a finer bound would round up.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Microsecond)
}

// Between returns a GORM scope limiting column to the range.
func Between(column string, r DateRange) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r.From != nil {
			db = db.Where(column+" >= ?", *r.From)
		}
		if r.To != nil {
			db = db.Where(column+" <= ?", *r.To)
		}
		return db
	}
}
