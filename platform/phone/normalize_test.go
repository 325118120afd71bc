package phone

import "testing"

func TestNormalizeE164AssumesGermany(t *testing.T) {
	got := NormalizeE164("030 12345678")
	if got != "+493012345678" {
		t.Fatalf("expected +493012345678, got %q", got)
	}
}

func TestFormatKeepsUnparseableInput(t *testing.T) {
	if got := FormatInternational("  call us  "); got != "call us" {
		t.Fatalf("expected trimmed input, got %q", got)
	}
	if got := FormatInternational(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
