package dto

import (
	"commercia/internal/core/id"
	"commercia/internal/core/types"
	"commercia/internal/domain/inventory"
)

// BalanceListQuery contains stock balance list parameters.
type BalanceListQuery struct {
	PaginationRequest
	ProductIDs  []string `form:"productIds"`
	ExcludeZero bool     `form:"excludeZero"`
}

// ToFilter converts the query into a balance filter.
func (q *BalanceListQuery) ToFilter() inventory.BalanceFilter {
	q.Defaults()

	filter := inventory.BalanceFilter{
		ExcludeZero: q.ExcludeZero,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	for _, raw := range q.ProductIDs {
		if productID, err := id.Parse(raw); err == nil {
			filter.ProductIDs = append(filter.ProductIDs, productID)
		}
	}
	return filter
}

// MovementListQuery contains movement history parameters.
type MovementListQuery struct {
	PaginationRequest
	TimeRangeQuery
	RecordType string `form:"recordType"`
}

// ToFilter converts the query into a movement filter.
func (q *MovementListQuery) ToFilter() inventory.MovementFilter {
	q.Defaults()

	filter := inventory.MovementFilter{
		FromDate: q.From,
		ToDate:   q.To,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.RecordType != "" {
		recordType := inventory.RecordType(q.RecordType)
		filter.RecordType = &recordType
	}
	return filter
}

// AvailabilityResponse reports the on-hand quantity of a product.
type AvailabilityResponse struct {
	ProductID string         `json:"productId"`
	Available types.Quantity `json:"available"`
}
