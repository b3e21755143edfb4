package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the scalar variant stored in a Value.
type Kind int

const (
	// KindEmpty is a blank cell. It is the zero value of Kind.
	KindEmpty Kind = iota
	// KindText is an uninterpreted string.
	KindText
	// KindNumber is a float64 numeric value.
	KindNumber
	// KindBool is a boolean value.
	KindBool
	// KindDate is a calendar date at day precision.
	KindDate
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalJSON encodes the kind as its lowercase name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(k.String())), nil
}

// Value is a single cell: exactly one of the scalar variants, or empty.
// The zero Value is the empty cell.
type Value struct {
	kind Kind
	num  float64
	text string
	b    bool
	date time.Time
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Text returns a text value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Date returns a date value truncated to day precision in UTC.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Empty returns the empty cell.
func Empty() Value {
	return Value{}
}

// Kind returns the variant stored in the value.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the value is a blank cell.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Num returns the numeric payload. It is only meaningful for KindNumber.
func (v Value) Num() float64 { return v.num }

// Str returns the text payload. It is only meaningful for KindText.
func (v Value) Str() string { return v.text }

// B returns the boolean payload. It is only meaningful for KindBool.
func (v Value) B() bool { return v.b }

// Day returns the date payload. It is only meaningful for KindDate.
func (v Value) Day() time.Time { return v.date }

// String renders the value in its canonical display form. Numbers use the
// shortest round-trip representation, dates use 2006-01-02, and the empty
// cell renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindEmpty:
		return ""
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.date.Format("2006-01-02")
	default:
		return ""
	}
}

// Native returns the value as the Go type a spreadsheet writer expects:
// float64, string, bool, time.Time, or nil for the empty cell.
func (v Value) Native() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindDate:
		return v.date
	default:
		return nil
	}
}

// Equal reports whether two values hold the same kind and payload.
// Text comparison is case-sensitive; use EqualFold for folded comparison.
func (v Value) Equal(o Value) bool {
	return v.equal(o, false)
}

// EqualFold is Equal with case-insensitive text comparison.
func (v Value) EqualFold(o Value) bool {
	return v.equal(o, true)
}

func (v Value) equal(o Value, fold bool) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindEmpty:
		return true
	case KindText:
		if fold {
			return strings.EqualFold(v.text, o.text)
		}
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.date.Equal(o.date)
	default:
		return false
	}
}

// numericRegex matches integers, decimals, and scientific notation after
// currency cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// twoDigitYearPivot controls how two-digit years resolve: values within
// pivot years above the current year wrap to the previous century.
const twoDigitYearPivot = 20

var twoDigitYearLayouts = []string{
	"1/2/06",
	"01/02/06",
	"1-2-06",
	"1.2.06",
	"01.02.06",
}

var fourDigitYearLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"01-02-2006",
	"1.2.2006",
	"01.02.2006",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"Jan 2, 2006",
	"2 Jan 2006",
	"20060102",
}

// Parse interprets a raw cell string as the most specific kind it can:
// blank becomes empty, recognized boolean words become booleans, anything
// numeric (including currency and accounting forms) becomes a number,
// recognized date layouts become dates, and everything else stays text.
// Bare "1" and "0" parse as numbers, not booleans.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}
	}
	if b, ok := parseBoolWord(s); ok {
		return Bool(b)
	}
	if f, ok := parseNumber(s); ok {
		return Number(f)
	}
	if t, ok := parseDate(s); ok {
		return Date(t)
	}
	return Text(s)
}

// parseBoolWord recognizes the word forms of booleans. The digit forms
// "1" and "0" are deliberately excluded so they infer as numbers.
func parseBoolWord(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	}
	return false, false
}

// parseNumber strips currency symbols, thousands separators, and
// accounting-style negatives before parsing.
func parseNumber(s string) (float64, bool) {
	cleaned := s
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.TrimSpace(cleaned)
	for _, sym := range []string{"$", "€", "£"} {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if !numericRegex.MatchString(cleaned) {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

// parseDate tries four-digit-year layouts first, then two-digit-year
// layouts with pivot adjustment.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > time.Now().Year()+twoDigitYearPivot {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// Coerce converts a value to the target kind. Empty cells pass through
// unchanged regardless of target. Any kind converts to text via its
// display form. Text converts to number, boolean, or date only when it
// parses cleanly, with "1" and "0" accepted as booleans in this explicit
// context. Numbers 0 and 1 convert to booleans and booleans convert to
// 0 and 1. All other cross-kind conversions fail.
func Coerce(v Value, target Kind) (Value, error) {
	if v.kind == KindEmpty || v.kind == target {
		return v, nil
	}
	switch target {
	case KindText:
		return Text(v.String()), nil
	case KindNumber:
		switch v.kind {
		case KindText:
			if f, ok := parseNumber(v.text); ok {
				return Number(f), nil
			}
		case KindBool:
			if v.b {
				return Number(1), nil
			}
			return Number(0), nil
		}
	case KindBool:
		switch v.kind {
		case KindText:
			if b, ok := parseBoolWord(v.text); ok {
				return Bool(b), nil
			}
			switch strings.TrimSpace(v.text) {
			case "1":
				return Bool(true), nil
			case "0":
				return Bool(false), nil
			}
		case KindNumber:
			switch v.num {
			case 1:
				return Bool(true), nil
			case 0:
				return Bool(false), nil
			}
		}
	case KindDate:
		if v.kind == KindText {
			if t, ok := parseDate(v.text); ok {
				return Date(t), nil
			}
		}
	}
	return Value{}, fmt.Errorf("cannot convert %s %q to %s", v.kind, v.String(), target)
}
