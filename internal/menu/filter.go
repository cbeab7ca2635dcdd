// Package menu 處理公開菜單的搜尋、篩選、排序與分組
package menu

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"digital-menu/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidFilter = errors.New("invalid menu filter")

type SortField string

const (
	SortByName  SortField = "name"
	SortByPrice SortField = "price"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Filter 對應 /api/menu-items 與 /api/menu 的 query string
type Filter struct {
	Search      string
	CategoryIDs []string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	SortBy      SortField
	Order       Order
}

// ParseFilter 解析 search, category (可重複), min_price, max_price, sort, order
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{
		Search: strings.TrimSpace(q.Get("search")),
		SortBy: SortByName,
		Order:  Asc,
	}

	for _, raw := range q["category"] {
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			parsed, err := uuid.Parse(id)
			if err != nil {
				return Filter{}, fmt.Errorf("%w: category %q", ErrInvalidFilter, id)
			}
			// 統一成資料庫回傳的小寫標準格式
			f.CategoryIDs = append(f.CategoryIDs, parsed.String())
		}
	}

	var err error
	if f.MinPrice, err = parsePrice(q.Get("min_price"), "min_price"); err != nil {
		return Filter{}, err
	}
	if f.MaxPrice, err = parsePrice(q.Get("max_price"), "max_price"); err != nil {
		return Filter{}, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return Filter{}, fmt.Errorf("%w: min_price greater than max_price", ErrInvalidFilter)
	}

	switch s := SortField(strings.ToLower(q.Get("sort"))); s {
	case "":
	case SortByName, SortByPrice:
		f.SortBy = s
	default:
		return Filter{}, fmt.Errorf("%w: sort %q", ErrInvalidFilter, s)
	}
	switch o := Order(strings.ToLower(q.Get("order"))); o {
	case "":
	case Asc, Desc:
		f.Order = o
	default:
		return Filter{}, fmt.Errorf("%w: order %q", ErrInvalidFilter, o)
	}
	return f, nil
}

func parsePrice(raw, name string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidFilter, name, raw)
	}
	return &d, nil
}

// Match 判斷單一品項是否符合篩選條件，不可供應的品項一律不符合
func (f Filter) Match(item model.MenuItem) bool {
	if !item.IsAvailable {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(item.Name), needle) &&
			!strings.Contains(strings.ToLower(item.Description), needle) {
			return false
		}
	}
	if len(f.CategoryIDs) > 0 && !contains(f.CategoryIDs, item.CategoryID) {
		return false
	}
	if f.MinPrice != nil && item.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && item.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
