// Package description generates German location descriptions for snapshots
// with an LLM and stores them on the snapshot.
package description

import (
	"context"

	"areabutler_backend/internal/entitygroups"
	snapshotdomain "areabutler_backend/internal/snapshot/domain"
	snapshotsvc "areabutler_backend/internal/snapshot/service"
	"areabutler_backend/platform/apperr"
	"areabutler_backend/platform/logger"

	"github.com/google/uuid"
)

const defaultMaxCharacters = 1000

// SnapshotSource is the slice of the snapshot service the generator needs.
type SnapshotSource interface {
	Get(ctx context.Context, userID, id uuid.UUID) (snapshotdomain.Snapshot, error)
	EntityGroups(ctx context.Context, userID, id uuid.UUID, opts snapshotsvc.GroupOptions) ([]entitygroups.EntityGroup, error)
	SetDescription(ctx context.Context, userID, id uuid.UUID, description string) (snapshotdomain.Snapshot, error)
}

// TextGenerator turns a prompt into text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	snapshots SnapshotSource
	generator TextGenerator
	log       *logger.Logger
}

// NewService creates the description service. generator is nil when no model
// is configured; Generate then reports the feature as unavailable.
func NewService(snapshots SnapshotSource, generator TextGenerator, log *logger.Logger) *Service {
	return &Service{snapshots: snapshots, generator: generator, log: log}
}

// Options tune one generation.
type Options struct {
	Tonality      Tonality
	TargetGroup   string
	MaxCharacters int
}

// Generate writes a description for the snapshot and stores it.
func (s *Service) Generate(ctx context.Context, userID, id uuid.UUID, opts Options) (string, error) {
	if s.generator == nil {
		return "", apperr.Unavailable("description generation is not configured", nil)
	}

	snapshot, err := s.snapshots.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	groups, err := s.snapshots.EntityGroups(ctx, userID, id, snapshotsvc.GroupOptions{})
	if err != nil {
		return "", err
	}

	if opts.MaxCharacters <= 0 {
		opts.MaxCharacters = defaultMaxCharacters
	}
	prompt := BuildPrompt(PromptInput{
		Address:       snapshot.Location.Address,
		Tonality:      opts.Tonality,
		TargetGroup:   opts.TargetGroup,
		MaxCharacters: opts.MaxCharacters,
		Groups:        groups,
	})

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", apperr.Unavailable("description generation failed", err)
	}
	text = clip(text, opts.MaxCharacters)
	if text == "" {
		return "", apperr.Unavailable("description generation returned no text", nil)
	}

	if _, err := s.snapshots.SetDescription(ctx, userID, id, text); err != nil {
		return "", err
	}
	s.log.Info("snapshot description generated", "snapshotId", id, "characters", len([]rune(text)))
	return text, nil
}
