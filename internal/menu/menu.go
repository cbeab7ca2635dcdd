package menu

import (
	"sort"

	"digital-menu/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Group 是一個分類以及其下符合條件的品項
type Group struct {
	Category model.Category   `json:"category"`
	Items    []model.MenuItem `json:"items"`
}

type PriceRange struct {
	Min decimal.Decimal `json:"min" swaggertype:"number"`
	Max decimal.Decimal `json:"max" swaggertype:"number"`
}

// Menu 是 /api/menu 的回應
type Menu struct {
	Groups     []Group     `json:"groups"`
	PriceRange *PriceRange `json:"price_range,omitempty"`
}

// collator 不可跨 goroutine 共用，每次排序各自建立
func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

// Apply 篩選後依 SortBy / Order 排序，回傳新的 slice
func Apply(items []model.MenuItem, f Filter) []model.MenuItem {
	out := make([]model.MenuItem, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	sortItems(newCollator(), out, f)
	return out
}

func sortItems(c *collate.Collator, items []model.MenuItem, f Filter) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if f.Order == Desc {
			a, b = b, a
		}
		if f.SortBy == SortByPrice {
			if cmp := a.Price.Cmp(b.Price); cmp != 0 {
				return cmp < 0
			}
		}
		return c.CompareString(a.Name, b.Name) < 0
	})
}

// Build 依分類分組，沒有品項的分類不會出現。
// 依名稱排序時分類也依名稱排序；依價格排序時以各組第一個品項的價格排序。
func Build(categories []model.Category, items []model.MenuItem, f Filter) Menu {
	c := newCollator()
	filtered := make([]model.MenuItem, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			filtered = append(filtered, item)
		}
	}

	byCategory := map[string][]model.MenuItem{}
	for _, item := range filtered {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	groups := make([]Group, 0, len(categories))
	for _, cat := range categories {
		list := byCategory[cat.ID]
		if len(list) == 0 {
			continue
		}
		sortItems(c, list, f)
		groups = append(groups, Group{Category: cat, Items: list})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if f.Order == Desc {
			a, b = b, a
		}
		if f.SortBy == SortByPrice {
			if cmp := a.Items[0].Price.Cmp(b.Items[0].Price); cmp != 0 {
				return cmp < 0
			}
		}
		return c.CompareString(a.Category.Name, b.Category.Name) < 0
	})

	return Menu{Groups: groups, PriceRange: PriceRangeOf(items)}
}

// PriceRangeOf 回傳可供應品項的最低與最高價格，沒有品項時回傳 nil
func PriceRangeOf(items []model.MenuItem) *PriceRange {
	var r *PriceRange
	for _, item := range items {
		if !item.IsAvailable {
			continue
		}
		if r == nil {
			r = &PriceRange{Min: item.Price, Max: item.Price}
			continue
		}
		if item.Price.LessThan(r.Min) {
			r.Min = item.Price
		}
		if item.Price.GreaterThan(r.Max) {
			r.Max = item.Price
		}
	}
	return r
}
