package core

import "time"

// ReportFilter scopes every reporting query. Nil range sides are unbounded;
// empty id sets mean "no restriction".
type ReportFilter struct {
	UserID      int64
	Start       *time.Time
	End         *time.Time
	AccountIDs  []int64
	CategoryIDs []int64
}
