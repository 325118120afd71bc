package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Altbau  Wohnung", "Altbau Wohnung"},
		{"<b>Helle</b> Wohnung<br>mit Balkon", "Helle Wohnung mit Balkon"},
		{"M&uuml;ller &amp; S&ouml;hne", "Müller & Söhne"},
		{"<script>alert(1)</script>Villa", "Villa"},
		{"&lt;img src=x&gt;", "<img src=x>"},
		{"  ", ""},
	}
	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Errorf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTextPtrNil(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("expected nil")
	}
}
