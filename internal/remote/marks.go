package remote

import (
	"context"
	"net/url"
	"strconv"

	"github.com/colonyops/markreview/internal/core/comments"
)

const (
	createCommentPath = "/marks/create-comment/"
	deleteCommentPath = "/marks/delete-comment/"
	submitReviewPath  = "/marks/submit-review/"
	deleteReviewPath  = "/marks/delete-review/"
)

var _ comments.Mutator = (*Client)(nil)

type saveCommentResponse struct {
	UserName  string `json:"user_name"`
	UserID    int64  `json:"user_id"`
	CommentID int64  `json:"comment_id"`
}

// SaveComment creates a comment on a mark, or edits one when req.Comment is
// set.
func (c *Client) SaveComment(ctx context.Context, req comments.SaveRequest) (comments.SaveResult, error) {
	form := url.Values{
		"description": {req.Description},
		"mark_id":     {formID(int64(req.Mark))},
		"comment_id":  {formID(int64(req.Comment))},
		"report_id":   {formID(int64(req.Report))},
	}

	var resp saveCommentResponse
	if err := c.Post(ctx, createCommentPath, form, &resp); err != nil {
		return comments.SaveResult{}, err
	}

	return comments.SaveResult{
		Comment:  comments.CommentID(resp.CommentID),
		UserID:   comments.UserID(resp.UserID),
		UserName: resp.UserName,
	}, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id comments.CommentID) error {
	return c.Post(ctx, deleteCommentPath, url.Values{"comment_id": {formID(int64(id))}}, nil)
}

// SubmitReview marks the mark as reviewed on the report.
func (c *Client) SubmitReview(ctx context.Context, report comments.ReportID, mark comments.MarkID) error {
	return c.Post(ctx, submitReviewPath, reviewForm(report, mark), nil)
}

// DeleteReview withdraws the review of the mark on the report.
func (c *Client) DeleteReview(ctx context.Context, report comments.ReportID, mark comments.MarkID) error {
	return c.Post(ctx, deleteReviewPath, reviewForm(report, mark), nil)
}

func reviewForm(report comments.ReportID, mark comments.MarkID) url.Values {
	return url.Values{
		"report_id": {formID(int64(report))},
		"mark_id":   {formID(int64(mark))},
	}
}

// formID renders an id field, sending absent ids as empty values.
func formID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
