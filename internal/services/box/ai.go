package box

import (
	"context"
	"encoding/json"
	"net/http"
)

// ExtractAgentID is the platform's structured-extraction agent.
const ExtractAgentID = "enhanced_extract_agent"

// AskRequest is a single-item question answered from inline content.
type AskRequest struct {
	Prompt  string
	Content string
	// FileID anchors the request; the content is supplied inline.
	FileID  string
	AgentID string
}

type aiItem struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

type aiAgentRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// AskAI returns the model's answer to req.
func (c *Client) AskAI(ctx context.Context, req AskRequest) (string, error) {
	payload := map[string]any{
		"mode":   "single_item_qa",
		"prompt": req.Prompt,
		"items":  []aiItem{{ID: req.FileID, Type: "file", Content: req.Content}},
	}
	if req.AgentID != "" {
		payload["ai_agent"] = aiAgentRef{Type: "ai_agent_id", ID: req.AgentID}
	}
	var out struct {
		Answer string `json:"answer"`
	}
	err := c.do(ctx, request{
		op:     "box ai ask",
		method: http.MethodPost,
		url:    c.apiBase + "/2.0/ai/ask",
		body:   jsonBody(payload),
	}, &out)
	if err != nil {
		return "", c.classify(err, "ai ask")
	}
	return out.Answer, nil
}

// ExtractStructured extracts the fields of an enterprise metadata template
// from content.
func (c *Client) ExtractStructured(ctx context.Context, fileID, content, templateKey string) (map[string]any, error) {
	payload := map[string]any{
		"items": []aiItem{{ID: fileID, Type: "file", Content: content}},
		"metadata_template": map[string]string{
			"template_key": templateKey,
			"scope":        "enterprise",
			"type":         "metadata_template",
		},
		"ai_agent": aiAgentRef{Type: "ai_agent_id", ID: ExtractAgentID},
	}
	var raw map[string]json.RawMessage
	err := c.do(ctx, request{
		op:     "box ai extract",
		method: http.MethodPost,
		url:    c.apiBase + "/2.0/ai/extract_structured",
		body:   jsonBody(payload),
	}, &raw)
	if err != nil {
		return nil, c.classify(err, "ai extract")
	}
	fields := map[string]any{}
	if answer, ok := raw["answer"]; ok {
		if err := json.Unmarshal(answer, &fields); err == nil {
			return fields, nil
		}
	}
	for k, v := range raw {
		var value any
		if json.Unmarshal(v, &value) == nil {
			fields[k] = value
		}
	}
	return fields, nil
}
