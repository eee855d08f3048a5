package comments

import (
	"context"

	"github.com/colonyops/markreview/internal/core/logging"
)

type reviewKey struct {
	report ReportID
	mark   MarkID
}

// ReviewMark is the reviewed / review-deleted control pair shown for a mark
// on a report.
type ReviewMark struct {
	Report        ReportID
	Mark          MarkID
	Reviewed      bool
	ReviewEnabled bool
	DeleteEnabled bool
}

// LoadReview seeds the review controls for a mark. Only the control that
// can change the current status starts enabled.
func (c *Controller) LoadReview(report ReportID, mark MarkID, reviewed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.review(report, mark)
	r.Reviewed = reviewed
	r.ReviewEnabled = !reviewed
	r.DeleteEnabled = reviewed
	c.view.SetReviewControls(*r)
}

// Review returns the current review controls for a mark.
func (c *Controller) Review(report ReportID, mark MarkID) ReviewMark {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.review(report, mark)
}

// ToggleReviewed marks the mark as reviewed on the report. The review
// control is disabled before the request is sent and stays disabled on
// success; a failure re-enables it so the user can retry.
func (c *Controller) ToggleReviewed(ctx context.Context, report ReportID, mark MarkID) error {
	return c.runReview(ctx, report, mark, taskReview)
}

// DeleteReview withdraws the caller's review of the mark on the report,
// with the same control discipline as ToggleReviewed.
func (c *Controller) DeleteReview(ctx context.Context, report ReportID, mark MarkID) error {
	return c.runReview(ctx, report, mark, taskDeleteReview)
}

func (c *Controller) runReview(ctx context.Context, report ReportID, mark MarkID, kind taskKind) error {
	c.mu.Lock()
	r := c.review(report, mark)
	enabled := &r.ReviewEnabled
	if kind == taskDeleteReview {
		enabled = &r.DeleteEnabled
	}
	if !*enabled {
		c.mu.Unlock()
		return ErrControlDisabled
	}
	*enabled = false
	c.view.SetReviewControls(*r)
	tk := c.tasks.start(ctx, taskKey{report: report, mark: mark, kind: kind})
	c.mu.Unlock()

	ctx = logging.WithMarkID(logging.WithReportID(ctx, int64(report)), int64(mark))

	var err error
	if kind == taskDeleteReview {
		err = c.mutator.DeleteReview(tk.ctx, report, mark)
	} else {
		err = c.mutator.SubmitReview(tk.ctx, report, mark)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.settle(ctx, tk, err); err != nil {
		*enabled = true
		c.view.SetReviewControls(*r)
		return err
	}

	if kind == taskDeleteReview {
		r.Reviewed = false
		r.ReviewEnabled = true
	} else {
		r.Reviewed = true
		r.DeleteEnabled = true
	}
	c.view.SetReviewControls(*r)
	return nil
}

// review returns the controls for (report, mark), creating them with both
// controls enabled when the status is unknown. Must be called with c.mu held.
func (c *Controller) review(report ReportID, mark MarkID) *ReviewMark {
	key := reviewKey{report: report, mark: mark}
	r, ok := c.reviews[key]
	if !ok {
		r = &ReviewMark{Report: report, Mark: mark, ReviewEnabled: true, DeleteEnabled: true}
		c.reviews[key] = r
	}
	return r
}
