package document

import "strings"

// wordsPerMinute is the reading speed behind the estimate in Stats.
const wordsPerMinute = 225

// Stats summarizes a document for the agent's get_document_stats tool.
type Stats struct {
	WordCount                   int     `json:"word_count"`
	CharacterCount              int     `json:"character_count"`
	LineCount                   int     `json:"line_count"`
	EmptyLineCount              int     `json:"empty_line_count"`
	ParagraphCount              int     `json:"paragraph_count"`
	MinLineLength               int     `json:"min_line_length"`
	MaxLineLength               int     `json:"max_line_length"`
	AverageLineLength           float64 `json:"average_line_length"`
	EstimatedReadingTimeMinutes int     `json:"estimated_reading_time_minutes"`
}

// ComputeStats derives statistics from the snapshot. An empty document has
// one (empty) line, zero words, and a zero reading time.
func (s *Snapshot) ComputeStats() Stats {
	st := Stats{
		CharacterCount: len(s.Content),
		LineCount:      len(s.Lines),
		MinLineLength:  -1,
	}

	totalLineLen := 0
	for _, line := range s.Lines {
		n := len(line)
		totalLineLen += n
		if strings.TrimSpace(line) == "" {
			st.EmptyLineCount++
		}
		if st.MinLineLength < 0 || n < st.MinLineLength {
			st.MinLineLength = n
		}
		if n > st.MaxLineLength {
			st.MaxLineLength = n
		}
	}
	if st.MinLineLength < 0 {
		st.MinLineLength = 0
	}
	if st.LineCount > 0 {
		st.AverageLineLength = float64(totalLineLen) / float64(st.LineCount)
	}

	st.WordCount = len(strings.Fields(s.Content))

	// Paragraphs are runs of non-empty lines.
	inParagraph := false
	for _, line := range s.Lines {
		if strings.TrimSpace(line) == "" {
			inParagraph = false
			continue
		}
		if !inParagraph {
			st.ParagraphCount++
			inParagraph = true
		}
	}

	if st.WordCount > 0 {
		st.EstimatedReadingTimeMinutes = (st.WordCount + wordsPerMinute - 1) / wordsPerMinute
	}
	return st
}
