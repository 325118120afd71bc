package exports

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxNameLength bounds item names in every rendered export.
const MaxNameLength = 40

const ellipsis = "..."

// FormatDistance renders meters as "850 m" below one kilometer and as
// German-formatted kilometers ("1,2 km") from there on.
func FormatDistance(meters float64) string {
	if math.IsNaN(meters) || meters < 0 {
		return ""
	}
	rounded := math.Round(meters)
	if rounded < 1000 {
		return strconv.Itoa(int(rounded)) + " m"
	}
	return message.NewPrinter(language.German).Sprintf("%.1f km", rounded/1000)
}

// TruncateName shortens name to at most max runes, ending in an ellipsis
// when cut. The same function backs the PDF, CSV and table exports.
func TruncateName(name string, max int) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if max <= 0 || len(runes) <= max {
		return name
	}
	if max <= len(ellipsis) {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-len(ellipsis)])) + ellipsis
}
