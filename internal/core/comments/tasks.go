package comments

import "context"

type taskKind string

const (
	taskSave         taskKind = "save-comment"
	taskDelete       taskKind = "delete-comment"
	taskReview       taskKind = "submit-review"
	taskDeleteReview taskKind = "delete-review"
)

type taskKey struct {
	report  ReportID
	mark    MarkID
	kind    taskKind
	comment CommentID
}

type task struct {
	key    taskKey
	ctx    context.Context
	cancel context.CancelFunc
}

// taskSet tracks the in-flight request per key. It is not safe for
// concurrent use; the controller guards it with its own lock.
type taskSet struct {
	inflight map[taskKey]*task
}

func newTaskSet() *taskSet {
	return &taskSet{inflight: make(map[taskKey]*task)}
}

// start registers a new task for key, cancelling any task it replaces.
func (s *taskSet) start(parent context.Context, key taskKey) *task {
	if prev, ok := s.inflight[key]; ok {
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	t := &task{key: key, ctx: ctx, cancel: cancel}
	s.inflight[key] = t
	return t
}

// finish retires t and reports whether it was still the current task for
// its key. A false result means the outcome must be dropped.
func (s *taskSet) finish(t *task) bool {
	t.cancel()

	cur, ok := s.inflight[t.key]
	if !ok || cur != t {
		return false
	}
	delete(s.inflight, t.key)
	return true
}

func (s *taskSet) cancelAll() {
	for key, t := range s.inflight {
		t.cancel()
		delete(s.inflight, key)
	}
}
