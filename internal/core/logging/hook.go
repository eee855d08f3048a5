package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts report_id and mark_id from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if reportID := GetReportID(ctx); reportID != 0 {
		e.Int64("report_id", reportID)
	}

	if markID := GetMarkID(ctx); markID != 0 {
		e.Int64("mark_id", markID)
	}
}
