package docgen

import "reelpress/internal/generation"

// Payload is the template input for the generated document.
type Payload struct {
	Topic        string  `json:"topic"`
	Author       string  `json:"author"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Technologies string  `json:"technologies"`
	YouTube      YouTube `json:"youtube"`
	LinkedIn     string  `json:"linkedin"`
	X            string  `json:"x"`
	Blog         string  `json:"blog"`
}

// YouTube groups the video publishing fields.
type YouTube struct {
	SharedLink  string `json:"shared_link"`
	SRT         string `json:"srt"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
}

// Links are the shared links published alongside the document.
type Links struct {
	Video     string
	Captions  string
	Thumbnail string
}

// NewPayload combines generated content with shared links.
func NewPayload(content generation.Content, links Links) Payload {
	meta := content.Metadata
	return Payload{
		Topic:        meta.Topic,
		Author:       meta.Author,
		Provider:     meta.Provider,
		Model:        meta.Model,
		Technologies: meta.Technologies,
		YouTube: YouTube{
			SharedLink:  links.Video,
			SRT:         links.Captions,
			Title:       meta.Title,
			Thumbnail:   links.Thumbnail,
			Description: content.YouTubeDescription,
			Tags:        meta.Tags,
		},
		LinkedIn: content.LinkedIn,
		X:        content.Tweet,
		Blog:     content.Blog,
	}
}
