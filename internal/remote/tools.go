package remote

import (
	"context"
	"net/url"
	"strconv"

	"github.com/colonyops/markreview/internal/core/jobs"
	"github.com/colonyops/markreview/internal/core/tools"
)

var _ tools.Client = (*Client)(nil)

type messageResponse struct {
	Message string `json:"message"`
}

// RenameComponent renames a verification component.
func (c *Client) RenameComponent(ctx context.Context, id int64, name string) (string, error) {
	form := url.Values{
		"component_id": {strconv.FormatInt(id, 10)},
		"name":         {name},
	}
	var resp messageResponse
	if err := c.Post(ctx, "/tools/ajax/rename_component/", form, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RunCleanup runs a manager cleanup and returns the server's message.
func (c *Client) RunCleanup(ctx context.Context, cl tools.Cleanup) (string, error) {
	var resp messageResponse
	if err := c.Post(ctx, "/tools/ajax/"+string(cl)+"/", url.Values{}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Recalculate recomputes a cache kind for ids, or for all jobs when ids is
// empty.
func (c *Client) Recalculate(ctx context.Context, kind string, ids []jobs.ID) (string, error) {
	form := url.Values{}
	if len(ids) > 0 {
		var err error
		if form, err = jobsForm(ids); err != nil {
			return "", err
		}
	}
	form.Set("type", kind)

	var resp messageResponse
	if err := c.Post(ctx, "/tools/ajax/recalculation/", form, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// UploadAllMarks uploads a marks archive. With deleteFirst the server drops
// every existing mark before importing.
func (c *Client) UploadAllMarks(ctx context.Context, f tools.File, deleteFirst bool) (tools.MarkCounts, error) {
	var fields url.Values
	if deleteFirst {
		fields = url.Values{"delete": {"1"}}
	}

	var counts tools.MarkCounts
	err := c.PostMultipart(ctx, "/marks/upload-all/", fields, []FilePart{{Field: "file", Filename: f.Name, Reader: f.Reader}}, &counts)
	return counts, err
}

// UploadMarks uploads mark files, one part each under the same field.
func (c *Client) UploadMarks(ctx context.Context, files []tools.File) (tools.UploadedMarks, error) {
	parts := make([]FilePart, 0, len(files))
	for _, f := range files {
		parts = append(parts, FilePart{Field: "file", Filename: f.Name, Reader: f.Reader})
	}

	var res tools.UploadedMarks
	err := c.PostMultipart(ctx, "/marks/upload/", nil, parts, &res)
	return res, err
}

// UploadTags uploads a tags file into the kind tag tree.
func (c *Client) UploadTags(ctx context.Context, kind tools.TagKind, f tools.File) error {
	return c.PostFile(ctx, "/marks/tags/"+string(kind)+"/upload/", "file", f.Name, f.Reader, nil)
}
