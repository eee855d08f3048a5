package comments

import (
	"context"
	"errors"

	"github.com/colonyops/markreview/internal/core/notify"
)

type (
	// MarkID identifies a mark and, with it, the thread attached to it.
	MarkID int64
	// CommentID is assigned by the server once a comment is created.
	CommentID int64
	// ReportID identifies the report page the threads are shown on.
	ReportID int64
	// UserID identifies a comment author.
	UserID int64
)

// CreatedNow is the display timestamp given to comments created in this session.
const CreatedNow = "Now"

var (
	// ErrEmptyComment is returned by Submit when the draft is blank. No
	// request is sent and nothing is surfaced to the user.
	ErrEmptyComment = errors.New("comment text is empty")

	// ErrSuperseded is returned when a newer request for the same thread and
	// kind replaced this one before its response was applied.
	ErrSuperseded = errors.New("request superseded by a newer one")

	// ErrControlDisabled is returned when a review control is already
	// disabled, either because a request is in flight or it already succeeded.
	ErrControlDisabled = errors.New("control is disabled")
)

// Comment is a single rendered comment in a thread.
type Comment struct {
	ID         CommentID
	AuthorID   UserID
	AuthorName string
	Text       string // HTML fragment
	CreatedAt  string // display only
}

// SaveRequest carries a create (Comment == 0) or edit of a comment.
type SaveRequest struct {
	Mark        MarkID
	Comment     CommentID
	Report      ReportID
	Description string
}

// SaveResult is the server's answer to a create. Edits leave it zero.
type SaveResult struct {
	Comment  CommentID
	UserID   UserID
	UserName string
}

// Mutator performs the remote mutations behind the comment and review
// controls. Errors returned by it are surfaced verbatim via Error().
type Mutator interface {
	SaveComment(ctx context.Context, req SaveRequest) (SaveResult, error)
	DeleteComment(ctx context.Context, id CommentID) error
	SubmitReview(ctx context.Context, report ReportID, mark MarkID) error
	DeleteReview(ctx context.Context, report ReportID, mark MarkID) error
}

// Notifier surfaces messages to the user.
type Notifier interface {
	Publish(n notify.Notification)
}

// ThreadView is the projection target for thread state. Implementations are
// called with the controller lock held and must not call back into the
// controller.
type ThreadView interface {
	// Render replaces the whole comment list of a thread.
	Render(mark MarkID, comments []Comment)
	// Prepend inserts a comment at the top of a thread.
	Prepend(mark MarkID, c Comment)
	Remove(mark MarkID, id CommentID)
	SetText(mark MarkID, id CommentID, text string)
	SetHighlight(mark MarkID, id CommentID, on bool)
	SetInput(mark MarkID, text string)
	Focus(mark MarkID)
	SetReviewControls(r ReviewMark)
}

type nopView struct{}

func (nopView) Render(MarkID, []Comment)             {}
func (nopView) Prepend(MarkID, Comment)              {}
func (nopView) Remove(MarkID, CommentID)             {}
func (nopView) SetText(MarkID, CommentID, string)    {}
func (nopView) SetHighlight(MarkID, CommentID, bool) {}
func (nopView) SetInput(MarkID, string)              {}
func (nopView) Focus(MarkID)                         {}
func (nopView) SetReviewControls(ReviewMark)         {}

type nopNotifier struct{}

func (nopNotifier) Publish(notify.Notification) {}
