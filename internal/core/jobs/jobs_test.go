package jobs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu sync.Mutex

	children bool
	removed  []ID
	uploaded map[string]string

	statuses  []string
	statusErr error
	calls     int
}

func (f *fakeClient) Status(_ context.Context, _ ID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if len(f.statuses) == 0 {
		return "", f.statusErr
	}
	s := f.statuses[0]
	f.statuses = f.statuses[1:]
	return s, nil
}

func (f *fakeClient) HasChildren(context.Context, ID) (bool, error) { return f.children, nil }

func (f *fakeClient) Remove(_ context.Context, ids ...ID) error {
	f.removed = append(f.removed, ids...)
	return nil
}

func (f *fakeClient) Clear(context.Context, ...ID) error                  { return nil }
func (f *fakeClient) RunDecision(context.Context, ID, DecisionMode) error { return nil }
func (f *fakeClient) StopDecision(context.Context, ID) error              { return nil }
func (f *fakeClient) CollapseReports(context.Context, ID) error           { return nil }
func (f *fakeClient) ClearVerificationFiles(context.Context, ID) error    { return nil }
func (f *fakeClient) SetAttrs(context.Context, ID, map[string]string) (bool, error) {
	return false, nil
}

func (f *fakeClient) UploadReports(_ context.Context, _ ID, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if f.uploaded == nil {
		f.uploaded = make(map[string]string)
	}
	f.uploaded[name] = string(data)
	return nil
}

func newService(c *fakeClient) *Service {
	return NewService(c, zerolog.Nop())
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses job with children", func(t *testing.T) {
		c := &fakeClient{children: true}

		err := newService(c).Remove(ctx, 3, false)

		require.ErrorIs(t, err, ErrHasChildren)
		assert.Empty(t, c.removed)
	})

	t.Run("force skips the check", func(t *testing.T) {
		c := &fakeClient{children: true}

		require.NoError(t, newService(c).Remove(ctx, 3, true))
		assert.Equal(t, []ID{3}, c.removed)
	})

	t.Run("childless job is removed", func(t *testing.T) {
		c := &fakeClient{}

		require.NoError(t, newService(c).Remove(ctx, 5, false))
		assert.Equal(t, []ID{5}, c.removed)
	})
}

func TestService_Upload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out", "run1"), 0o755))
	archive := filepath.Join(dir, "out", "run1", "reports.zip")
	require.NoError(t, os.WriteFile(archive, []byte("zipdata"), 0o644))

	c := &fakeClient{}
	path, err := newService(c).Upload(context.Background(), 7, filepath.Join(dir, "out", "**", "*.zip"))

	require.NoError(t, err)
	assert.Equal(t, archive, path)
	assert.Equal(t, "zipdata", c.uploaded["reports.zip"])
}

func TestResolveArchive(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.zip", "b.zip"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	tests := []struct {
		name    string
		pattern string
		want    string
		wantErr string
	}{
		{name: "empty", pattern: "", wantErr: "no archive chosen"},
		{name: "exact", pattern: filepath.Join(dir, "a.zip"), want: filepath.Join(dir, "a.zip")},
		{name: "none", pattern: filepath.Join(dir, "*.tar"), wantErr: "no archive matches"},
		{name: "ambiguous", pattern: filepath.Join(dir, "*.zip"), wantErr: "2 archives match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveArchive(tt.pattern)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDecisionMode(t *testing.T) {
	mode, err := ParseDecisionMode("lastconf")
	require.NoError(t, err)
	assert.Equal(t, DecisionLastConf, mode)

	_, err = ParseDecisionMode("slow")
	assert.Error(t, err)
}

func TestService_Watch(t *testing.T) {
	t.Run("reports each change and stops on error", func(t *testing.T) {
		c := &fakeClient{
			statuses:  []string{"1", "2", "2", "3"},
			statusErr: errors.New("job not found"),
		}

		var seen []string
		err := newService(c).Watch(context.Background(), 1, time.Millisecond, "1", func(s string) {
			seen = append(seen, s)
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "job not found")
		assert.Equal(t, []string{"2", "3"}, seen)
		assert.Equal(t, 5, c.calls)
	})

	t.Run("stops when context is done", func(t *testing.T) {
		c := &fakeClient{statuses: []string{"1"}}
		ctx, cancel := context.WithCancel(context.Background())

		var seen []string
		err := newService(c).Watch(ctx, 1, time.Hour, "", func(s string) {
			seen = append(seen, s)
			cancel()
		})

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []string{"1"}, seen)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		err := newService(&fakeClient{}).Watch(context.Background(), 1, 0, "", func(string) {})
		assert.Error(t, err)
	})
}
