package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/colonyops/markreview/internal/core/jobs"
)

var _ jobs.Client = (*Client)(nil)

func jobPath(prefix string, id jobs.ID) string {
	return prefix + strconv.FormatInt(int64(id), 10) + "/"
}

// Status returns the job's decision status code.
func (c *Client) Status(ctx context.Context, id jobs.ID) (string, error) {
	var resp struct {
		Status json.RawMessage `json:"status"`
	}
	if err := c.Post(ctx, jobPath("/jobs/status/", id), url.Values{}, &resp); err != nil {
		return "", err
	}
	return rawString(resp.Status), nil
}

// HasChildren reports whether the job has child jobs.
func (c *Client) HasChildren(ctx context.Context, id jobs.ID) (bool, error) {
	var resp struct {
		Children bool `json:"children"`
	}
	if err := c.Post(ctx, jobPath("/jobs/do_job_has_children/", id), url.Values{}, &resp); err != nil {
		return false, err
	}
	return resp.Children, nil
}

// Remove deletes the jobs.
func (c *Client) Remove(ctx context.Context, ids ...jobs.ID) error {
	form, err := jobsForm(ids)
	if err != nil {
		return err
	}
	return c.Post(ctx, "/jobs/remove/", form, nil)
}

// Clear deletes the decision results of the jobs.
func (c *Client) Clear(ctx context.Context, ids ...jobs.ID) error {
	form, err := jobsForm(ids)
	if err != nil {
		return err
	}
	return c.Post(ctx, "/jobs/clear/", form, nil)
}

// RunDecision starts a decision with the given mode.
func (c *Client) RunDecision(ctx context.Context, id jobs.ID, mode jobs.DecisionMode) error {
	return c.Post(ctx, jobPath("/jobs/run_decision/", id), url.Values{"mode": {string(mode)}}, nil)
}

// StopDecision stops the running decision.
func (c *Client) StopDecision(ctx context.Context, id jobs.ID) error {
	return c.Post(ctx, jobPath("/jobs/stop_decision/", id), url.Values{}, nil)
}

// CollapseReports collapses the job's report tree.
func (c *Client) CollapseReports(ctx context.Context, id jobs.ID) error {
	return c.Post(ctx, jobPath("/jobs/collapse_reports/", id), url.Values{}, nil)
}

// ClearVerificationFiles removes the stored verification files of the job.
func (c *Client) ClearVerificationFiles(ctx context.Context, id jobs.ID) error {
	return c.Post(ctx, jobPath("/reports/clear_verification_files/", id), url.Values{}, nil)
}

// SetAttrs applies the view attributes and reports whether the page needs
// a reload.
func (c *Client) SetAttrs(ctx context.Context, id jobs.ID, attrs map[string]string) (bool, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return false, fmt.Errorf("encode attrs: %w", err)
	}

	var resp struct {
		IsReload bool `json:"is_reload"`
	}
	if err := c.Post(ctx, jobPath("/jobs/set_attrs/", id), url.Values{"data": {string(data)}}, &resp); err != nil {
		return false, err
	}
	return resp.IsReload, nil
}

// UploadReports uploads a reports archive for the job.
func (c *Client) UploadReports(ctx context.Context, id jobs.ID, filename string, r io.Reader) error {
	return c.PostFile(ctx, jobPath("/jobs/upload_reports/", id), "archive", filename, r, nil)
}

func jobsForm(ids []jobs.ID) (url.Values, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no jobs given")
	}

	list := make([]string, 0, len(ids))
	for _, id := range ids {
		list = append(list, strconv.FormatInt(int64(id), 10))
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode jobs: %w", err)
	}
	return url.Values{"jobs": {string(data)}}, nil
}

// rawString renders a JSON scalar as text; the status may come as a number
// or a string.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
