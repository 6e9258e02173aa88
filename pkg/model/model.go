// Package model defines the shared data types for visited-URL tracking.
package model

import "time"

// VisitRecord is a single visited URL. The URL is stored in normalized
// form and is the store's primary key; Timestamp is epoch milliseconds of
// the most recent visit. Re-visiting overwrites the timestamp; records are
// removed only by an explicit clear.
type VisitRecord struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// VisitedAt returns the record timestamp as time.Time.
func (v *VisitRecord) VisitedAt() time.Time {
	return time.UnixMilli(v.Timestamp)
}

// ImportProgress is the process-lifetime state of a bulk import run.
// It is not persisted; a crash mid-import leaves no trace beyond whatever
// records were already durably written. Imported counts attempted items,
// not succeeded ones.
type ImportProgress struct {
	InProgress bool `json:"inProgress"`
	Total      int  `json:"total"`
	Imported   int  `json:"imported"`
}

// LinkStatus is one element of a batched visited-status answer.
type LinkStatus struct {
	URL     string `json:"url"`
	Visited bool   `json:"isVisited"`
}

// Stats summarizes the store for status displays.
// LastImportTime is epoch milliseconds, 0 when no import has completed.
type Stats struct {
	Count          int   `json:"count"`
	LastImportTime int64 `json:"lastImportTime,omitempty"`
}
