package logging

import (
	"context"
	"testing"
)

func TestWithReportID(t *testing.T) {
	ctx := WithReportID(context.Background(), 12)

	if got := GetReportID(ctx); got != 12 {
		t.Errorf("GetReportID() = %d, want %d", got, 12)
	}
}

func TestWithMarkID(t *testing.T) {
	ctx := WithMarkID(context.Background(), 4)

	if got := GetMarkID(ctx); got != 4 {
		t.Errorf("GetMarkID() = %d, want %d", got, 4)
	}
}

func TestGetIDs_NotPresent(t *testing.T) {
	ctx := context.Background()

	if got := GetReportID(ctx); got != 0 {
		t.Errorf("GetReportID() = %d, want 0", got)
	}
	if got := GetMarkID(ctx); got != 0 {
		t.Errorf("GetMarkID() = %d, want 0", got)
	}
}
