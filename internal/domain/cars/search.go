package cars

import "strings"

type SortOrder string

const (
	SortByPriceAsc  SortOrder = "price_asc"
	SortByPriceDesc SortOrder = "price_desc"
	SortByNewest    SortOrder = "newest"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// SearchParams filter the catalog. Zero values mean "no filter".
type SearchParams struct {
	Host          HostID
	City          string
	Statuses      []CarStatus
	OnlyActive    bool
	PriceMinPaise int64
	PriceMaxPaise int64
	Sort          SortOrder
	Limit         int
	Offset        int
}

type SearchResult struct {
	Items []*Car
	Total int
}

// Normalized clamps pagination and lowercases text filters.
func (p SearchParams) Normalized() SearchParams {
	out := p
	out.City = strings.ToLower(strings.TrimSpace(p.City))
	if out.Limit <= 0 {
		out.Limit = defaultSearchLimit
	}
	if out.Limit > maxSearchLimit {
		out.Limit = maxSearchLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}

// Matches applies the non-pagination filters to a single car.
func (p SearchParams) Matches(car *Car) bool {
	if p.OnlyActive && car.Status != StatusActive {
		return false
	}
	if p.Host != "" && car.Host != p.Host {
		return false
	}
	if len(p.Statuses) > 0 && !statusIncluded(car.Status, p.Statuses) {
		return false
	}
	if p.City != "" && !strings.EqualFold(car.City, p.City) {
		return false
	}
	if p.PriceMinPaise > 0 && car.DailyRate.Amount < p.PriceMinPaise {
		return false
	}
	if p.PriceMaxPaise > 0 && car.DailyRate.Amount > p.PriceMaxPaise {
		return false
	}
	return true
}

func statusIncluded(status CarStatus, allowed []CarStatus) bool {
	for _, candidate := range allowed {
		if status == candidate {
			return true
		}
	}
	return false
}
