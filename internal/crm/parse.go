package crm

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FlexNumber decodes numbers that CRMs send either as JSON numbers or as
// localized strings such as "1.234,50" or "85 m²". Values that cannot be read
// decode to NaN and count as absent.
type FlexNumber float64

func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexNumber(num)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if parsed, ok := ParseNumber(str); ok {
			*f = FlexNumber(parsed)
			return nil
		}
	}
	*f = FlexNumber(math.NaN())
	return nil
}

// Float returns the value and whether it is usable.
func (f *FlexNumber) Float() (float64, bool) {
	if f == nil {
		return 0, false
	}
	v := float64(*f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Positive returns the value when it is greater than zero.
func (f *FlexNumber) Positive() (float64, bool) {
	v, ok := f.Float()
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// Ptr returns the value as a pointer, nil when absent or not positive.
func (f *FlexNumber) Ptr() *float64 {
	v, ok := f.Positive()
	if !ok {
		return nil
	}
	return &v
}

// Num builds a FlexNumber pointer.
func Num(v float64) *FlexNumber {
	f := FlexNumber(v)
	return &f
}

var (
	unitReplacer = strings.NewReplacer("m²", "", "m2", "", "qm", "", "eur", "", "€", "")
	// numberToken is the first run of digits and inner separators; prose,
	// units and price suffixes like ",-" around it are ignored.
	numberToken = regexp.MustCompile(`-?\d(?:[\d.,]*\d)?`)
)

// ParseNumber reads a number written with German or English separators and
// optional units. A single separator followed by exactly three digits is read
// as a thousands separator.
func ParseNumber(raw string) (float64, bool) {
	s := numberToken.FindString(unitReplacer.Replace(strings.ToLower(strings.TrimSpace(raw))))
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = normalizeSingleSeparator(s, ",")
	case lastDot >= 0:
		s = normalizeSingleSeparator(s, ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func normalizeSingleSeparator(s, sep string) string {
	parts := strings.Split(s, sep)
	if len(parts) > 2 {
		return strings.Join(parts, "")
	}
	if len(parts[1]) == 3 && len(strings.TrimPrefix(parts[0], "-")) <= 3 && len(strings.TrimPrefix(parts[0], "-")) > 0 {
		return parts[0] + parts[1]
	}
	return parts[0] + "." + parts[1]
}

// FlexCoordinate is a degree value. Unlike FlexNumber, a single separator is
// always decimal, so "13.405" stays 13.405.
type FlexCoordinate float64

func (c *FlexCoordinate) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*c = FlexCoordinate(num)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*c = FlexCoordinate(parseDegrees(str))
		return nil
	}
	*c = FlexCoordinate(math.NaN())
	return nil
}

// Number converts to a FlexNumber, keeping nil.
func (c *FlexCoordinate) Number() *FlexNumber {
	if c == nil {
		return nil
	}
	return Num(float64(*c))
}

// Coord builds a FlexCoordinate pointer.
func Coord(v float64) *FlexCoordinate {
	c := FlexCoordinate(v)
	return &c
}

func parseDegrees(raw string) float64 {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || s == "" {
		return math.NaN()
	}
	return v
}

// FlexBool decodes true/false, 1/0 and German yes/no strings.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = FlexBool(truthy(v))
	return nil
}

func truthy(v any) bool {
	switch typed := v.(type) {
	case bool:
		return typed
	case float64:
		return typed > 0
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "1", "true", "ja", "yes", "j", "y":
			return true
		}
		if n, ok := ParseNumber(typed); ok {
			return n > 0
		}
	case []any:
		for _, item := range typed {
			if truthy(item) {
				return true
			}
		}
	}
	return false
}

// FlexString decodes strings and numbers, e.g. record ids.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = FlexString(num.String())
	return nil
}

// FlexList decodes a single string or a list of strings.
type FlexList []string

func (l *FlexList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = compact(list)
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = compact([]string{single})
		return nil
	}
	*l = nil
	return nil
}

// ContainsFold reports whether any entry contains needle, case-insensitively.
func (l FlexList) ContainsFold(needle string) bool {
	needle = strings.ToLower(needle)
	for _, item := range l {
		if strings.Contains(strings.ToLower(item), needle) {
			return true
		}
	}
	return false
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// NormalizeCurrency maps "EUR" and empty values to "€" and keeps anything else.
func NormalizeCurrency(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "EUR") {
		return "€"
	}
	return trimmed
}
