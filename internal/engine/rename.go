package engine

import (
	"strconv"
	"unicode/utf8"
)

// LabelOptions configure ResolveLabelsWith.
type LabelOptions struct {
	// Separator goes between the label and the repeat counter.
	// Defaults to "_".
	Separator string
	// MaxLength caps each resolved label at this many runes, truncating
	// the base so the counter suffix always fits. Zero means unlimited.
	MaxLength int
}

// ResolveLabels maps a sequence of labels to unique labels with default
// options: underscore separator, no length cap.
func ResolveLabels(labels []string) []string {
	return ResolveLabelsWith(labels, LabelOptions{})
}

// ResolveLabelsWith renames repeated labels so the output contains no
// duplicates. The first occurrence of a label keeps it unchanged; the
// k-th repeat becomes label, separator, k. When a generated name is
// itself already taken the counter keeps climbing until the name is
// free, so the result is insensitive to whether colliding names were in
// the input or were generated. The mapping is pure and deterministic:
// equal inputs always produce equal outputs.
func ResolveLabelsWith(labels []string, opts LabelOptions) []string {
	sep := opts.Separator
	if sep == "" {
		sep = "_"
	}
	used := make(map[string]struct{}, len(labels))
	seen := make(map[string]int, len(labels))
	out := make([]string, len(labels))
	for i, label := range labels {
		k := seen[label]
		name := truncate(label, opts.MaxLength)
		if k > 0 {
			name = counterName(label, sep, k, opts.MaxLength)
		}
		for {
			if _, taken := used[name]; !taken {
				break
			}
			k++
			name = counterName(label, sep, k, opts.MaxLength)
		}
		seen[label] = k + 1
		used[name] = struct{}{}
		out[i] = name
	}
	return out
}

func counterName(label, sep string, k, maxLength int) string {
	suffix := sep + strconv.Itoa(k)
	if maxLength > 0 {
		keep := maxLength - utf8.RuneCountInString(suffix)
		if keep < 1 {
			keep = 1
		}
		label = truncate(label, keep)
	}
	return label + suffix
}

func truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}
