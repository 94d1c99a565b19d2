package ui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kvit-s/redline/internal/document"
)

// FormatToolArgs formats tool arguments for compact display
func FormatToolArgs(raw json.RawMessage) string {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil || len(args) == 0 {
		return ""
	}

	var parts []string
	for key, val := range args {
		var valStr string
		switch v := val.(type) {
		case string:
			// Truncate long strings
			if len(v) > 50 {
				valStr = fmt.Sprintf("%q", v[:47]+"...")
			} else {
				valStr = fmt.Sprintf("%q", v)
			}
		case float64, int, bool:
			valStr = fmt.Sprintf("%v", v)
		default:
			jsonBytes, _ := json.Marshal(v)
			valStr = string(jsonBytes)
		}
		parts = append(parts, fmt.Sprintf("%s=%s", key, valStr))
	}
	return strings.Join(parts, ", ")
}

// FormatStats renders document statistics as an aligned block.
func FormatStats(st document.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %-22s %d\n", "Words:", st.WordCount)
	fmt.Fprintf(&b, "  %-22s %d\n", "Characters:", st.CharacterCount)
	fmt.Fprintf(&b, "  %-22s %d (%d empty)\n", "Lines:", st.LineCount, st.EmptyLineCount)
	fmt.Fprintf(&b, "  %-22s %d\n", "Paragraphs:", st.ParagraphCount)
	fmt.Fprintf(&b, "  %-22s min %d / max %d / avg %.1f\n", "Line length:", st.MinLineLength, st.MaxLineLength, st.AverageLineLength)
	fmt.Fprintf(&b, "  %-22s %d min\n", "Est. reading time:", st.EstimatedReadingTimeMinutes)
	return strings.TrimSuffix(b.String(), "\n")
}
