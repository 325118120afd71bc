package description

import (
	"context"
	"errors"
	"strings"
	"testing"

	"areabutler_backend/internal/entitygroups"
	"areabutler_backend/internal/location"
	snapshotdomain "areabutler_backend/internal/snapshot/domain"
	snapshotsvc "areabutler_backend/internal/snapshot/service"
	"areabutler_backend/platform/apperr"
	"areabutler_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSnapshots struct {
	snapshot snapshotdomain.Snapshot
	groups   []entitygroups.EntityGroup
	stored   string
}

func (f *fakeSnapshots) Get(_ context.Context, userID, id uuid.UUID) (snapshotdomain.Snapshot, error) {
	if id != f.snapshot.ID || userID != f.snapshot.UserID {
		return snapshotdomain.Snapshot{}, apperr.NotFound("snapshot not found")
	}
	return f.snapshot, nil
}

func (f *fakeSnapshots) EntityGroups(context.Context, uuid.UUID, uuid.UUID, snapshotsvc.GroupOptions) ([]entitygroups.EntityGroup, error) {
	return f.groups, nil
}

func (f *fakeSnapshots) SetDescription(_ context.Context, _, _ uuid.UUID, description string) (snapshotdomain.Snapshot, error) {
	f.stored = description
	s := f.snapshot
	s.Description = &description
	return s, nil
}

type fakeGenerator struct {
	prompt string
	answer string
	err    error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.answer, g.err
}

func item(name string, distance float64) entitygroups.ResultEntity {
	return entitygroups.ResultEntity{ID: name, Name: name, DistanceInMeters: distance, Selected: true}
}

func testSnapshots() *fakeSnapshots {
	return &fakeSnapshots{
		snapshot: snapshotdomain.Snapshot{
			ID:       uuid.New(),
			UserID:   uuid.New(),
			Location: location.Place{Address: "Alexanderplatz 1, Berlin"},
		},
		groups: []entitygroups.EntityGroup{
			{Title: "Supermärkte", Items: []entitygroups.ResultEntity{
				item("Edeka", 900), item("Rewe", 300), item("Aldi", 1200), item("Lidl", 1500),
			}},
			{Title: "Parks", Items: []entitygroups.ResultEntity{{Name: "Volkspark", Selected: false}}},
		},
	}
}

func TestBuildPromptListsNearestItems(t *testing.T) {
	snaps := testSnapshots()
	prompt := BuildPrompt(PromptInput{
		Address:       snaps.snapshot.Location.Address,
		Tonality:      TonalityEmotional,
		TargetGroup:   "Familien",
		MaxCharacters: 600,
		Groups:        snaps.groups,
	})

	if !strings.Contains(prompt, "Supermärkte: Rewe (300 m), Edeka (900 m), Aldi") {
		t.Fatalf("expected nearest three items in order, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "Lidl") {
		t.Fatal("only the three nearest items may be listed")
	}
	if strings.Contains(prompt, "Parks") {
		t.Fatal("groups without selected items must be skipped")
	}
	for _, want := range []string{"Alexanderplatz 1", "emotional", "Zielgruppe: Familien", "600 Zeichen"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt misses %q", want)
		}
	}
}

func TestGenerateStoresClippedText(t *testing.T) {
	snaps := testSnapshots()
	gen := &fakeGenerator{answer: strings.Repeat("Ruhige Lage. ", 20)}
	svc := NewService(snaps, gen, logger.Discard())

	text, err := svc.Generate(context.Background(), snaps.snapshot.UserID, snaps.snapshot.ID, Options{MaxCharacters: 100})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len([]rune(text)) > 100 || !strings.HasSuffix(text, ".") {
		t.Fatalf("expected text clipped at a sentence end, got %q", text)
	}
	if snaps.stored != text {
		t.Fatalf("expected stored description %q, got %q", text, snaps.stored)
	}
	if !strings.Contains(gen.prompt, "sachlich") {
		t.Fatal("expected neutral tonality by default")
	}
}

func TestGenerateWithoutModelIsUnavailable(t *testing.T) {
	snaps := testSnapshots()
	svc := NewService(snaps, nil, logger.Discard())

	_, err := svc.Generate(context.Background(), snaps.snapshot.UserID, snaps.snapshot.ID, Options{})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestGenerateModelFailure(t *testing.T) {
	snaps := testSnapshots()
	svc := NewService(snaps, &fakeGenerator{err: errors.New("timeout")}, logger.Discard())

	_, err := svc.Generate(context.Background(), snaps.snapshot.UserID, snaps.snapshot.ID, Options{})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if snaps.stored != "" {
		t.Fatal("nothing may be stored on failure")
	}
}

func TestGenerateForeignSnapshotNotFound(t *testing.T) {
	snaps := testSnapshots()
	svc := NewService(snaps, &fakeGenerator{answer: "x"}, logger.Discard())

	_, err := svc.Generate(context.Background(), uuid.New(), snaps.snapshot.ID, Options{})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClipWithoutSentenceEnd(t *testing.T) {
	if got := clip("äöü äöü äöü", 5); got != "äöü ä" {
		t.Fatalf("expected rune-safe cut, got %q", got)
	}
}
