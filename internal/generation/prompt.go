package generation

// Call names one generation request.
type Call string

const (
	CallMetadata Call = "metadata"
	CallBlog     Call = "blog"
	CallTweet    Call = "tweet"
	CallLinkedIn Call = "linkedin"
	CallYouTube  Call = "youtube"
)

// Prompts sent with each text call. The transcript is attached as content.
const (
	BlogPrompt     = "write a blog post highlighting the technology described in the provided transcription."
	TweetPrompt    = "write a tweet highlighting the technology described in the provided transcription."
	LinkedInPrompt = "write a linkedin post highlighting the technology described in the provided transcription."
	YouTubePrompt  = "write a youtube description highlighting the technology described in the provided transcription."
)

const writerSystemPrompt = `You write developer relations content about technology talks.
Respond with the requested text only, without preamble.`

const metadataSystemPrompt = `You extract metadata from technology talk transcripts.
Respond with a single JSON object with string fields:
"topic", "author", "provider", "model", "technologies", "title", "tags".
"technologies" and "tags" are comma separated lists.
Use "unknown" for anything the transcript does not state.`

// PromptFor returns the instruction for a text call.
func PromptFor(call Call) string {
	switch call {
	case CallBlog:
		return BlogPrompt
	case CallTweet:
		return TweetPrompt
	case CallLinkedIn:
		return LinkedInPrompt
	case CallYouTube:
		return YouTubePrompt
	default:
		return ""
	}
}
