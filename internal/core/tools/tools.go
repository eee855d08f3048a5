// Package tools provides the administrator actions of the server's manager
// page: renaming components, clearing caches and stale data, recalculating
// job caches, and bulk mark and tag uploads. Every action reports its
// outcome on the notification bus.
package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/colonyops/markreview/internal/core/jobs"
	"github.com/colonyops/markreview/internal/core/notify"
)

// Cleanup is a maintenance action that takes no arguments. Its value is the
// endpoint name on the server.
type Cleanup string

const (
	ClearComponents Cleanup = "clear_components"
	ClearProblems   Cleanup = "clear_problems"
	ClearSystem     Cleanup = "clear_system"
	ResolveMarks    Cleanup = "resolve_marks"
	ClearCallLogs   Cleanup = "clear_call_logs"
	ClearJobsView   Cleanup = "clear_jobs_view"
	ClearCET        Cleanup = "clear_cet"
	ClearAllCET     Cleanup = "clear_all_cet"
	ClearAllReviews Cleanup = "clear_all_reviews"
	ClearTasks      Cleanup = "clear_tasks"
)

// Cleanups lists every cleanup in the order the manager page shows them.
var Cleanups = []Cleanup{
	ClearComponents, ClearProblems, ClearSystem, ResolveMarks, ClearCallLogs,
	ClearJobsView, ClearCET, ClearAllCET, ClearAllReviews, ClearTasks,
}

// Name is the command line spelling, e.g. "clear-call-logs".
func (c Cleanup) Name() string { return strings.ReplaceAll(string(c), "_", "-") }

// ParseCleanup accepts either spelling of a cleanup.
func ParseCleanup(s string) (Cleanup, error) {
	c := Cleanup(strings.ReplaceAll(s, "-", "_"))
	if slices.Contains(Cleanups, c) {
		return c, nil
	}
	return "", fmt.Errorf("unknown cleanup %q", s)
}

// TagKind selects the tag tree an upload goes to.
type TagKind string

const (
	TagsSafe   TagKind = "safe"
	TagsUnsafe TagKind = "unsafe"
)

// ParseTagKind validates a tag kind string.
func ParseTagKind(s string) (TagKind, error) {
	switch TagKind(s) {
	case TagsSafe, TagsUnsafe:
		return TagKind(s), nil
	}
	return "", fmt.Errorf("unknown tag kind %q (want %q or %q)", s, TagsSafe, TagsUnsafe)
}

var recalcKind = regexp.MustCompile(`^\w+$`)

// MarkCounts is the per-verdict result of a full marks upload.
type MarkCounts struct {
	Unsafe  int `json:"unsafe"`
	Safe    int `json:"safe"`
	Unknown int `json:"unknown"`
	Fail    int `json:"fail"`
}

func (m MarkCounts) String() string {
	return fmt.Sprintf("%d unsafe, %d safe, %d unknown, %d failed", m.Unsafe, m.Safe, m.Unknown, m.Fail)
}

// UploadedMarks is the answer to a marks upload: the created mark when a
// single file was sent, a summary message otherwise.
type UploadedMarks struct {
	Type    string `json:"type,omitempty"`
	ID      string `json:"id,omitempty"`
	Message string `json:"success,omitempty"`
}

// File is one local file to upload.
type File struct {
	Name   string
	Reader io.Reader
}

// ErrNoFile is returned when an upload pattern matches nothing.
var ErrNoFile = errors.New("no file chosen")

// Client performs manager actions against the server. Actions that answer
// with a message return it.
type Client interface {
	RenameComponent(ctx context.Context, id int64, name string) (string, error)
	RunCleanup(ctx context.Context, c Cleanup) (string, error)
	Recalculate(ctx context.Context, kind string, ids []jobs.ID) (string, error)
	UploadAllMarks(ctx context.Context, f File, deleteFirst bool) (MarkCounts, error)
	UploadMarks(ctx context.Context, files []File) (UploadedMarks, error)
	UploadTags(ctx context.Context, kind TagKind, f File) error
}

// Notifier receives the outcome of every action.
type Notifier interface {
	Publish(n notify.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Publish(notify.Notification) {}

// Service runs manager actions and publishes their result: the server's
// message on success, the failure otherwise.
type Service struct {
	client   Client
	notifier Notifier
	log      zerolog.Logger
}

// NewService creates a tools service. notifier may be nil.
func NewService(client Client, notifier Notifier, logger zerolog.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{client: client, notifier: notifier, log: logger}
}

// RenameComponent renames a verification component.
func (s *Service) RenameComponent(ctx context.Context, id int64, name string) (string, error) {
	msg, err := s.client.RenameComponent(ctx, id, name)
	return msg, s.report("rename-component", msg, err)
}

// Run runs a cleanup.
func (s *Service) Run(ctx context.Context, c Cleanup) (string, error) {
	msg, err := s.client.RunCleanup(ctx, c)
	return msg, s.report(c.Name(), msg, err)
}

// Recalculate recomputes the kind of cache for the given jobs, or for every
// job when ids is empty.
func (s *Service) Recalculate(ctx context.Context, kind string, ids []jobs.ID) (string, error) {
	if !recalcKind.MatchString(kind) {
		return "", fmt.Errorf("invalid recalculation type %q", kind)
	}
	msg, err := s.client.Recalculate(ctx, kind, ids)
	return msg, s.report("recalculate", msg, err)
}

// UploadAllMarks uploads a marks archive, optionally replacing every
// existing mark. pattern must resolve to exactly one file.
func (s *Service) UploadAllMarks(ctx context.Context, pattern string, deleteFirst bool) (MarkCounts, error) {
	path, err := jobs.ResolveArchive(pattern)
	if err != nil {
		return MarkCounts{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return MarkCounts{}, fmt.Errorf("open marks archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	counts, err := s.client.UploadAllMarks(ctx, File{Name: filepath.Base(path), Reader: f}, deleteFirst)
	if err := s.report("upload-all-marks", "Uploaded marks: "+counts.String(), err); err != nil {
		return MarkCounts{}, err
	}
	s.log.Info().Str("archive", path).Bool("delete", deleteFirst).Stringer("counts", counts).Msg("marks uploaded")
	return counts, nil
}

// UploadMarks uploads every file matched by patterns as a new mark.
func (s *Service) UploadMarks(ctx context.Context, patterns ...string) (UploadedMarks, error) {
	paths, err := ResolveFiles(patterns...)
	if err != nil {
		return UploadedMarks{}, err
	}

	var opened []*os.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	files := make([]File, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return UploadedMarks{}, fmt.Errorf("open mark file: %w", err)
		}
		opened = append(opened, f)
		files = append(files, File{Name: filepath.Base(path), Reader: f})
	}

	res, err := s.client.UploadMarks(ctx, files)
	msg := res.Message
	if res.ID != "" {
		msg = fmt.Sprintf("Created %s mark %s", res.Type, res.ID)
	}
	if err := s.report("upload-marks", msg, err); err != nil {
		return UploadedMarks{}, err
	}
	return res, nil
}

// UploadTags uploads a tags file into the kind tag tree.
func (s *Service) UploadTags(ctx context.Context, kind TagKind, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNoFile, path)
	}
	if err != nil {
		return fmt.Errorf("open tags file: %w", err)
	}
	defer func() { _ = f.Close() }()

	err = s.client.UploadTags(ctx, kind, File{Name: filepath.Base(path), Reader: f})
	return s.report("upload-tags", fmt.Sprintf("Uploaded %s tags from %s", kind, filepath.Base(path)), err)
}

func (s *Service) report(action, msg string, err error) error {
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("manager action failed")
		s.notifier.Publish(notify.Failed(action, err))
		return err
	}

	if msg == "" {
		msg = "Done"
	}
	s.log.Info().Str("action", action).Str("message", msg).Msg("manager action done")
	s.notifier.Publish(notify.Info(action, msg))
	return nil
}

// ResolveFiles expands paths and doublestar globs to regular files, in
// order and without duplicates. Every pattern must match at least one.
func ResolveFiles(patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, ErrNoFile
	}

	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: nothing matches %q", ErrNoFile, pattern)
		}
		for _, m := range matches {
			if !slices.Contains(out, m) {
				out = append(out, m)
			}
		}
	}
	return out, nil
}
