package comments

import "fmt"

// Mode is the intent the thread's input form currently represents.
type Mode int

const (
	ModeIdle Mode = iota
	ModeReplying
	ModeEditing
)

func (m Mode) String() string {
	switch m {
	case ModeReplying:
		return "replying"
	case ModeEditing:
		return "editing"
	default:
		return "idle"
	}
}

// FormState is the tagged value describing a thread's input form:
// Idle, Replying(target, author) or Editing(target). The zero value is Idle.
type FormState struct {
	mode   Mode
	target CommentID
	author string
}

// Idle is the state of a form that will create a new top-level comment.
func Idle() FormState { return FormState{} }

// Replying is the state of a form pre-filled with a quote of target.
func Replying(target CommentID, author string) FormState {
	return FormState{mode: ModeReplying, target: target, author: author}
}

// Editing is the state of a form whose submit rewrites target in place.
func Editing(target CommentID) FormState {
	return FormState{mode: ModeEditing, target: target}
}

func (s FormState) Mode() Mode { return s.mode }

// Target returns the comment a reply or edit points at.
func (s FormState) Target() (CommentID, bool) {
	if s.mode == ModeIdle {
		return 0, false
	}
	return s.target, true
}

// Author returns the quoted author while replying.
func (s FormState) Author() string { return s.author }

// EditTarget returns the comment being edited, if any. Only an edit changes
// the outgoing payload; a reply is submitted as a new comment.
func (s FormState) EditTarget() (CommentID, bool) {
	if s.mode != ModeEditing {
		return 0, false
	}
	return s.target, true
}

func (s FormState) String() string {
	switch s.mode {
	case ModeReplying:
		return fmt.Sprintf("Replying(%d, %q)", s.target, s.author)
	case ModeEditing:
		return fmt.Sprintf("Editing(%d)", s.target)
	default:
		return "Idle"
	}
}
