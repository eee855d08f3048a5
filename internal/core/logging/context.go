package logging

import "context"

type contextKey string

const (
	reportIDKey contextKey = "report_id"
	markIDKey   contextKey = "mark_id"
)

// WithReportID adds a report ID to the context.
func WithReportID(ctx context.Context, reportID int64) context.Context {
	return context.WithValue(ctx, reportIDKey, reportID)
}

// WithMarkID adds a mark ID to the context.
func WithMarkID(ctx context.Context, markID int64) context.Context {
	return context.WithValue(ctx, markIDKey, markID)
}

// GetReportID retrieves the report ID from the context.
// Returns 0 if not present.
func GetReportID(ctx context.Context) int64 {
	if id, ok := ctx.Value(reportIDKey).(int64); ok {
		return id
	}
	return 0
}

// GetMarkID retrieves the mark ID from the context.
// Returns 0 if not present.
func GetMarkID(ctx context.Context) int64 {
	if id, ok := ctx.Value(markIDKey).(int64); ok {
		return id
	}
	return 0
}
