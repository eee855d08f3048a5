package remote

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/markreview/internal/core/jobs"
	"github.com/colonyops/markreview/internal/core/tools"
)

func TestClient_Tools(t *testing.T) {
	ctx := context.Background()

	t.Run("rename sends id and name", func(t *testing.T) {
		srv := newFakeServer(t)
		srv.on("/tools/ajax/rename_component/", respond(http.StatusOK, `{"message": "Component was renamed"}`))
		c := newTestClient(t, srv.URL, nil)

		msg, err := c.RenameComponent(ctx, 8, "cpu")
		require.NoError(t, err)
		assert.Equal(t, "Component was renamed", msg)
		assert.Equal(t, map[string]string{"component_id": "8", "name": "cpu"}, srv.last().Form)
	})

	t.Run("cleanup posts to its endpoint", func(t *testing.T) {
		srv := newFakeServer(t)
		srv.on("/tools/ajax/clear_call_logs/", respond(http.StatusOK, `{"message": "Call logs were deleted"}`))
		c := newTestClient(t, srv.URL, nil)

		msg, err := c.RunCleanup(ctx, tools.ClearCallLogs)
		require.NoError(t, err)
		assert.Equal(t, "Call logs were deleted", msg)
		assert.Equal(t, http.MethodPost, srv.last().Method)
	})

	t.Run("cleanup error", func(t *testing.T) {
		srv := newFakeServer(t)
		srv.on("/tools/ajax/clear_system/", respond(http.StatusOK, `{"error": "You don't have access to this page"}`))
		c := newTestClient(t, srv.URL, nil)

		_, err := c.RunCleanup(ctx, tools.ClearSystem)
		require.Error(t, err)
		assert.True(t, IsServerError(err))
	})

	t.Run("recalculation for some or all jobs", func(t *testing.T) {
		srv := newFakeServer(t)
		c := newTestClient(t, srv.URL, nil)

		_, err := c.Recalculate(ctx, "leaves", []jobs.ID{3, 4})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"type": "leaves", "jobs": `["3","4"]`}, srv.last().Form)

		_, err = c.Recalculate(ctx, "leaves", nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"type": "leaves"}, srv.last().Form)
	})

	t.Run("upload all marks sends the delete flag", func(t *testing.T) {
		srv := newFakeServer(t)
		var del, name string
		srv.on("/marks/upload-all/", func(w http.ResponseWriter, r *http.Request) {
			_, hdr, err := r.FormFile("file")
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			del, name = r.FormValue("delete"), hdr.Filename
			_, _ = io.WriteString(w, `{"unsafe": 3, "safe": 2, "unknown": 1, "fail": 0}`)
		})
		c := newTestClient(t, srv.URL, nil)

		counts, err := c.UploadAllMarks(ctx, tools.File{Name: "marks.zip", Reader: strings.NewReader("PK")}, true)
		require.NoError(t, err)
		assert.Equal(t, tools.MarkCounts{Unsafe: 3, Safe: 2, Unknown: 1}, counts)
		assert.Equal(t, "1", del)
		assert.Equal(t, "marks.zip", name)
	})

	t.Run("upload marks sends every file under one field", func(t *testing.T) {
		srv := newFakeServer(t)
		var names []string
		srv.on("/marks/upload/", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			for _, hdr := range r.MultipartForm.File["file"] {
				names = append(names, hdr.Filename)
			}
			_, _ = io.WriteString(w, `{"success": "Number of created marks: 2"}`)
		})
		c := newTestClient(t, srv.URL, nil)

		res, err := c.UploadMarks(ctx, []tools.File{
			{Name: "a.zip", Reader: strings.NewReader("a")},
			{Name: "b.zip", Reader: strings.NewReader("b")},
		})
		require.NoError(t, err)
		assert.Equal(t, "Number of created marks: 2", res.Message)
		sort.Strings(names)
		assert.Equal(t, []string{"a.zip", "b.zip"}, names)
	})

	t.Run("upload single mark returns its id", func(t *testing.T) {
		srv := newFakeServer(t)
		srv.on("/marks/upload/", respond(http.StatusOK, `{"type": "unsafe", "id": "17"}`))
		c := newTestClient(t, srv.URL, nil)

		res, err := c.UploadMarks(ctx, []tools.File{{Name: "a.zip", Reader: strings.NewReader("a")}})
		require.NoError(t, err)
		assert.Equal(t, tools.UploadedMarks{Type: "unsafe", ID: "17"}, res)
	})

	t.Run("upload tags goes to the kind tree", func(t *testing.T) {
		srv := newFakeServer(t)
		c := newTestClient(t, srv.URL, nil)

		require.NoError(t, c.UploadTags(ctx, tools.TagsUnsafe, tools.File{Name: "tags.json", Reader: strings.NewReader("[]")}))
		assert.Equal(t, "/marks/tags/unsafe/upload/", srv.last().Path)
	})
}
