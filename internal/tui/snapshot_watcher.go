package tui

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/colonyops/markreview/internal/core/snapshot"
)

// snapshotChangedMsg carries the reloaded snapshot, or the reason it could
// not be read.
type snapshotChangedMsg struct {
	snap *snapshot.Snapshot
	err  error
}

// SnapshotWatcher reloads the snapshot file when it changes on disk.
type SnapshotWatcher struct {
	path        string
	watcher     *fsnotify.Watcher
	debounceDur time.Duration
}

// NewSnapshotWatcher starts watching path. Editors usually replace files
// rather than write them in place, so the parent directory is watched.
func NewSnapshotWatcher(path string) (*SnapshotWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve snapshot path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &SnapshotWatcher{
		path:        abs,
		watcher:     watcher,
		debounceDur: 100 * time.Millisecond,
	}, nil
}

// Wait returns a command that blocks until the snapshot changes and then
// reports the reloaded content. It must be re-issued after each message.
func (w *SnapshotWatcher) Wait() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				// Let a burst of writes settle, then drop what queued up.
				time.Sleep(w.debounceDur)
				w.drain()

				snap, err := snapshot.Load(w.path)
				return snapshotChangedMsg{snap: snap, err: err}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return nil
				}
				return snapshotChangedMsg{err: err}
			}
		}
	}
}

func (w *SnapshotWatcher) drain() {
	for {
		select {
		case <-w.watcher.Events:
		default:
			return
		}
	}
}

// Close stops watching. Pending Wait commands return nil.
func (w *SnapshotWatcher) Close() error {
	return w.watcher.Close()
}
