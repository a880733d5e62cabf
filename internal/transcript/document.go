package transcript

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Item types.
const (
	ItemPronunciation = "pronunciation"
	ItemPunctuation   = "punctuation"
)

// Job statuses recorded on documents.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Document is the structured transcript artifact.
type Document struct {
	JobName string  `json:"jobName"`
	Status  string  `json:"status"`
	Results Results `json:"results"`
}

// Results holds the full text and the timed token stream.
type Results struct {
	Transcripts []Text `json:"transcripts"`
	Items       []Item `json:"items"`
}

// Text is one full transcript rendition.
type Text struct {
	Transcript string `json:"transcript"`
}

// Item is a single token. Punctuation items carry no timing.
type Item struct {
	Type         string        `json:"type"`
	StartTime    string        `json:"start_time,omitempty"`
	EndTime      string        `json:"end_time,omitempty"`
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is a candidate rendering of an item.
type Alternative struct {
	Content    string `json:"content"`
	Confidence string `json:"confidence,omitempty"`
}

// Content returns the first alternative's content.
func (i Item) Content() string {
	if len(i.Alternatives) == 0 {
		return ""
	}
	return i.Alternatives[0].Content
}

// Start returns the item's start time in seconds.
func (i Item) Start() (float64, bool) {
	if i.StartTime == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(i.StartTime, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Parse decodes a structured transcript.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return &doc, nil
}

// Encode serializes the document.
func (d *Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Segment is a timed span of recognized speech with optional word timing.
type Segment struct {
	Text  string
	Start float64
	End   float64
	Words []Word
}

// Word is a single recognized word. Missing timing is reported as a
// negative Start.
type Word struct {
	Text  string
	Start float64
	End   float64
	Score float64
}

// FromSegments builds a completed document from recognized segments.
// Words lacking timing inherit the segment start. Trailing punctuation on a
// word becomes its own punctuation item.
func FromSegments(jobName string, segments []Segment) *Document {
	doc := &Document{JobName: jobName, Status: StatusCompleted}
	var full []string
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			full = append(full, text)
		}
		words := seg.Words
		if len(words) == 0 {
			words = splitSegment(seg)
		}
		for _, w := range words {
			start, end := w.Start, w.End
			if start < 0 {
				start, end = seg.Start, seg.End
			}
			doc.Results.Items = append(doc.Results.Items, tokenItems(w.Text, start, end, w.Score)...)
		}
	}
	doc.Results.Transcripts = []Text{{Transcript: strings.Join(full, " ")}}
	return doc
}

func splitSegment(seg Segment) []Word {
	fields := strings.Fields(seg.Text)
	out := make([]Word, 0, len(fields))
	for _, f := range fields {
		out = append(out, Word{Text: f, Start: seg.Start, End: seg.End})
	}
	return out
}

func tokenItems(raw string, start, end, score float64) []Item {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	word := strings.TrimRightFunc(raw, unicode.IsPunct)
	punct := raw[len(word):]
	var items []Item
	if word != "" {
		alt := Alternative{Content: word}
		if score > 0 {
			alt.Confidence = strconv.FormatFloat(score, 'f', 4, 64)
		}
		items = append(items, Item{
			Type:         ItemPronunciation,
			StartTime:    formatSeconds(start),
			EndTime:      formatSeconds(end),
			Alternatives: []Alternative{alt},
		})
	}
	for _, r := range punct {
		items = append(items, Item{Type: ItemPunctuation, Alternatives: []Alternative{{Content: string(r)}}})
	}
	return items
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
