package wiki

// Stats aggregates site-wide counters.
type Stats struct {
	Documents      int   `json:"documents"`
	Revisions      int   `json:"revisions"`
	PendingChanges int   `json:"pending_changes"`
	Actors         int   `json:"actors"`
	TotalViews     int64 `json:"total_views"`
}
