package dto

import (
	"time"

	"commercia/internal/domain/finance"
)

// EntryListQuery contains ledger entry list parameters.
type EntryListQuery struct {
	PaginationRequest
	TimeRangeQuery
	Direction    string `form:"direction"`
	DocumentKind string `form:"documentKind"`
}

// ToFilter converts the query into an entry filter.
func (q *EntryListQuery) ToFilter() finance.EntryFilter {
	q.Defaults()

	filter := finance.EntryFilter{
		DocumentKind: q.DocumentKind,
		FromDate:     q.From,
		ToDate:       q.To,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
	if q.Direction != "" {
		direction := finance.Direction(q.Direction)
		filter.Direction = &direction
	}
	return filter
}

// TurnoverQuery bounds the turnover report to a period.
type TurnoverQuery struct {
	From time.Time `form:"from" time_format:"2006-01-02" binding:"required"`
	To   time.Time `form:"to" time_format:"2006-01-02" binding:"required"`
}
