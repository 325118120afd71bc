package description

import (
	"fmt"
	"slices"
	"strings"

	"areabutler_backend/internal/entitygroups"
	"areabutler_backend/internal/exports"
)

// Tonality of the generated text.
type Tonality string

const (
	TonalityFormal    Tonality = "FORMAL"
	TonalityNeutral   Tonality = "NEUTRAL"
	TonalityEmotional Tonality = "EMOTIONAL"
)

var tonalityText = map[Tonality]string{
	TonalityFormal:    "förmlich und seriös",
	TonalityNeutral:   "sachlich und neutral",
	TonalityEmotional: "emotional und bildhaft",
}

const (
	// itemsPerGroup is how many nearest POIs of a group reach the prompt.
	itemsPerGroup = 3
	maxGroups     = 12
)

// PromptInput is everything the prompt is built from.
type PromptInput struct {
	Address       string
	Tonality      Tonality
	TargetGroup   string
	MaxCharacters int
	Groups        []entitygroups.EntityGroup
}

// BuildPrompt lists the nearest selected POIs of each group with their distance
// and states the writing constraints.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	if in.Address != "" {
		fmt.Fprintf(&b, "Adresse: %s\n", in.Address)
	}
	b.WriteString("\nUmgebung:\n")

	written := 0
	for _, g := range in.Groups {
		if written == maxGroups {
			break
		}
		items := g.SelectedItems()
		if len(items) == 0 {
			continue
		}
		slices.SortStableFunc(items, func(a, b entitygroups.ResultEntity) int {
			switch {
			case a.DistanceInMeters < b.DistanceInMeters:
				return -1
			case a.DistanceInMeters > b.DistanceInMeters:
				return 1
			}
			return 0
		})
		if len(items) > itemsPerGroup {
			items = items[:itemsPerGroup]
		}

		names := make([]string, 0, len(items))
		for _, item := range items {
			name := exports.TruncateName(item.Name, exports.MaxNameLength)
			if item.HasDistance() {
				name += " (" + exports.FormatDistance(item.DistanceInMeters) + ")"
			}
			names = append(names, name)
		}
		fmt.Fprintf(&b, "- %s: %s\n", g.Title, strings.Join(names, ", "))
		written++
	}
	if written == 0 {
		b.WriteString("- keine Umgebungsdaten\n")
	}

	tone, ok := tonalityText[in.Tonality]
	if !ok {
		tone = tonalityText[TonalityNeutral]
	}

	b.WriteString("\nAufgabe:\nSchreibe eine Lagebeschreibung für ein Exposé.\nRegeln:\n")
	fmt.Fprintf(&b, "- Tonalität: %s.\n", tone)
	if in.TargetGroup != "" {
		fmt.Fprintf(&b, "- Zielgruppe: %s.\n", in.TargetGroup)
	}
	fmt.Fprintf(&b, "- Höchstens %d Zeichen.\n", in.MaxCharacters)
	b.WriteString("- Nur Fließtext auf Deutsch, keine Überschriften und keine Aufzählungen.\n")
	b.WriteString("- Nenne nur Orte aus der Umgebungsliste.\n")
	return b.String()
}

// clip cuts text to max runes, preferring the end of the last complete sentence.
func clip(text string, max int) string {
	runes := []rune(strings.TrimSpace(text))
	if max <= 0 || len(runes) <= max {
		return string(runes)
	}
	cut := string(runes[:max])
	if i := strings.LastIndexAny(cut, ".!?"); i > 0 {
		return cut[:i+1]
	}
	return strings.TrimSpace(cut)
}
