package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitMsg(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()

	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot change")
		return nil
	}
}

func TestSnapshotWatcher_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report_id: 12\n"), 0o644))

	w, err := NewSnapshotWatcher(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	// Changes to neighbours are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("report_id: 12\nmarks:\n  - mark_id: 4\n"), 0o644))

	msg, ok := waitMsg(t, w.Wait()).(snapshotChangedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	require.Len(t, msg.snap.Marks, 1)
	assert.Equal(t, int64(4), msg.snap.Marks[0].MarkID)
}

func TestSnapshotWatcher_ReportsParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report_id: 12\n"), 0o644))

	w, err := NewSnapshotWatcher(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("nope: true\n"), 0o644))

	msg, ok := waitMsg(t, w.Wait()).(snapshotChangedMsg)
	require.True(t, ok)
	assert.Error(t, msg.err)
}

func TestSnapshotWatcher_CloseEndsWait(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report_id: 12\n"), 0o644))

	w, err := NewSnapshotWatcher(path)
	require.NoError(t, err)

	cmd := w.Wait()
	require.NoError(t, w.Close())
	assert.Nil(t, waitMsg(t, cmd))
}

func TestNewSnapshotWatcher_MissingDir(t *testing.T) {
	_, err := NewSnapshotWatcher(filepath.Join(t.TempDir(), "missing", "report.yaml"))
	assert.Error(t, err)
}
