// Package snapshot reads the YAML description of a report's marks and
// comments that seeds the comment controller.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/markreview/internal/core/comments"
)

// Comment is one rendered comment, newest first within its mark.
type Comment struct {
	ID       int64  `yaml:"id"`
	AuthorID int64  `yaml:"author_id"`
	Author   string `yaml:"author"`
	Text     string `yaml:"text"`
	Created  string `yaml:"created"`
}

// Mark is one thread. A missing Reviewed means the status is unknown.
type Mark struct {
	MarkID   int64     `yaml:"mark_id"`
	Reviewed *bool     `yaml:"reviewed,omitempty"`
	Comments []Comment `yaml:"comments"`
}

// Snapshot is a report page's threads.
type Snapshot struct {
	ReportID int64  `yaml:"report_id"`
	Marks    []Mark `yaml:"marks"`
}

// Load reads and validates the snapshot at path.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a snapshot. Unknown fields are rejected.
func Parse(r io.Reader) (*Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks ids are positive and unique.
func (s *Snapshot) Validate() error {
	var errs []error
	if s.ReportID < 0 {
		errs = append(errs, fmt.Errorf("report_id must not be negative"))
	}

	marks := make(map[int64]bool, len(s.Marks))
	for i, m := range s.Marks {
		if m.MarkID <= 0 {
			errs = append(errs, fmt.Errorf("marks[%d]: mark_id must be positive", i))
			continue
		}
		if marks[m.MarkID] {
			errs = append(errs, fmt.Errorf("marks[%d]: duplicate mark_id %d", i, m.MarkID))
		}
		marks[m.MarkID] = true

		ids := make(map[int64]bool, len(m.Comments))
		for j, c := range m.Comments {
			switch {
			case c.ID <= 0:
				errs = append(errs, fmt.Errorf("marks[%d].comments[%d]: id must be positive", i, j))
			case ids[c.ID]:
				errs = append(errs, fmt.Errorf("marks[%d].comments[%d]: duplicate id %d", i, j, c.ID))
			}
			ids[c.ID] = true
		}
	}
	return errors.Join(errs...)
}

// Apply seeds ctrl with every thread and each known review status.
func (s *Snapshot) Apply(ctrl *comments.Controller) {
	report := comments.ReportID(s.ReportID)
	for _, m := range s.Marks {
		mark := comments.MarkID(m.MarkID)
		ctrl.Load(mark, m.threadComments())
		if m.Reviewed != nil {
			ctrl.LoadReview(report, mark, *m.Reviewed)
		}
	}
}

// Refresh reloads a changed snapshot into a running controller. Threads
// whose form is open or holds a draft keep their comments untouched and are
// returned; review statuses are always applied.
func (s *Snapshot) Refresh(ctrl *comments.Controller) []comments.MarkID {
	var kept []comments.MarkID
	report := comments.ReportID(s.ReportID)
	for _, m := range s.Marks {
		mark := comments.MarkID(m.MarkID)
		if ctrl.State(mark).Mode() != comments.ModeIdle || ctrl.Draft(mark) != "" {
			kept = append(kept, mark)
		} else {
			ctrl.Load(mark, m.threadComments())
		}
		if m.Reviewed != nil {
			ctrl.LoadReview(report, mark, *m.Reviewed)
		}
	}
	return kept
}

// Find returns the mark with the given id.
func (s *Snapshot) Find(mark int64) (Mark, bool) {
	for _, m := range s.Marks {
		if m.MarkID == mark {
			return m, true
		}
	}
	return Mark{}, false
}

func (m Mark) threadComments() []comments.Comment {
	out := make([]comments.Comment, 0, len(m.Comments))
	for _, c := range m.Comments {
		out = append(out, comments.Comment{
			ID:         comments.CommentID(c.ID),
			AuthorID:   comments.UserID(c.AuthorID),
			AuthorName: c.Author,
			Text:       c.Text,
			CreatedAt:  c.Created,
		})
	}
	return out
}
