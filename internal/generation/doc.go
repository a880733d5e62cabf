// Package generation produces the publishable text for a recording: a blog
// post, a tweet, a LinkedIn post, a YouTube description, and descriptive
// metadata. Two backends are available, the content platform's AI agents and
// an OpenRouter-compatible chat model.
package generation
