package testsupport

import (
	"encoding/json"
	"testing"
)

// SkillPayload returns a skill invocation body for a source file named
// fileName with every context field populated.
func SkillPayload(t testing.TB, fileName string) []byte {
	t.Helper()
	payload := map[string]any{
		"type": "skill_invocation",
		"id":   "req-123",
		"skill": map[string]any{
			"id":   "skill-456",
			"type": "skill",
		},
		"token": map[string]any{
			"read":  map[string]any{"access_token": "read-token"},
			"write": map[string]any{"access_token": "write-token"},
		},
		"source": map[string]any{
			"id":     "file-789",
			"type":   "file",
			"name":   fileName,
			"size":   4096,
			"parent": map[string]any{"id": "folder-1", "type": "folder"},
		},
		"event": map[string]any{
			"type":       "FILE.UPLOADED",
			"created_by": map[string]any{"id": "user-42", "type": "user"},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal skill payload: %v", err)
	}
	return data
}
