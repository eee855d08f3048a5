// Package jobs provides the verification job actions available from a job
// page: status checks, decisions, cleanup and report archive upload.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// ID identifies a verification job.
type ID int64

// DecisionMode selects how a decision is started without the run form.
type DecisionMode string

const (
	DecisionFast     DecisionMode = "fast"
	DecisionLastConf DecisionMode = "lastconf"
)

// ParseDecisionMode validates a decision mode string.
func ParseDecisionMode(s string) (DecisionMode, error) {
	switch DecisionMode(s) {
	case DecisionFast, DecisionLastConf:
		return DecisionMode(s), nil
	}
	return "", fmt.Errorf("unknown decision mode %q (want %q or %q)", s, DecisionFast, DecisionLastConf)
}

// ErrHasChildren is returned by Remove when the job has child jobs and the
// caller did not force the removal.
var ErrHasChildren = errors.New("job has children")

// Client performs job actions against the server.
type Client interface {
	Status(ctx context.Context, id ID) (string, error)
	HasChildren(ctx context.Context, id ID) (bool, error)
	Remove(ctx context.Context, ids ...ID) error
	Clear(ctx context.Context, ids ...ID) error
	RunDecision(ctx context.Context, id ID, mode DecisionMode) error
	StopDecision(ctx context.Context, id ID) error
	CollapseReports(ctx context.Context, id ID) error
	ClearVerificationFiles(ctx context.Context, id ID) error
	SetAttrs(ctx context.Context, id ID, attrs map[string]string) (bool, error)
	UploadReports(ctx context.Context, id ID, filename string, r io.Reader) error
}

// Service wraps a Client with the checks the job page performs before
// firing a request.
type Service struct {
	client Client
	log    zerolog.Logger
}

// NewService creates a job service.
func NewService(client Client, logger zerolog.Logger) *Service {
	return &Service{client: client, log: logger}
}

// Client returns the underlying client for plain pass-through actions.
func (s *Service) Client() Client { return s.client }

// Remove deletes a job. Without force, a job with children is refused.
func (s *Service) Remove(ctx context.Context, id ID, force bool) error {
	if !force {
		children, err := s.client.HasChildren(ctx, id)
		if err != nil {
			return fmt.Errorf("check children: %w", err)
		}
		if children {
			return ErrHasChildren
		}
	}

	if err := s.client.Remove(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("job_id", int64(id)).Bool("force", force).Msg("job removed")
	return nil
}

// Upload resolves pattern to exactly one archive and uploads it as the
// job's reports.
func (s *Service) Upload(ctx context.Context, id ID, pattern string) (string, error) {
	path, err := ResolveArchive(pattern)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := s.client.UploadReports(ctx, id, filepath.Base(path), f); err != nil {
		return "", err
	}
	s.log.Info().Int64("job_id", int64(id)).Str("archive", path).Msg("reports uploaded")
	return path, nil
}

// ResolveArchive expands a path or doublestar glob to a single regular file.
func ResolveArchive(pattern string) (string, error) {
	if pattern == "" {
		return "", errors.New("no archive chosen")
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return "", fmt.Errorf("invalid archive pattern %q: %w", pattern, err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no archive matches %q", pattern)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%d archives match %q, choose one", len(matches), pattern)
	}
}
