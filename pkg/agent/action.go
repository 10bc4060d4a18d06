package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action kinds the selection model may emit.
const (
	ActionSelectTool = "tool"
	ActionFinish     = "finish"
)

// Action is the typed decision decoded from the model's tool-selection
// output: either invoke one named tool with an input, or finish with an
// answer.
type Action struct {
	Type   string `json:"action"`
	Tool   string `json:"tool,omitempty"`
	Input  string `json:"input,omitempty"`
	Answer string `json:"answer,omitempty"`
}

// ParseAction strictly decodes a model reply into an Action. The reply must
// contain a JSON object; surrounding prose is tolerated, malformed or
// incomplete JSON is not.
func ParseAction(raw string) (*Action, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var action Action
	if err := json.Unmarshal([]byte(raw[start:end+1]), &action); err != nil {
		return nil, fmt.Errorf("invalid action JSON: %w", err)
	}

	switch action.Type {
	case ActionSelectTool:
		if strings.TrimSpace(action.Tool) == "" {
			return nil, fmt.Errorf("tool action without a tool name")
		}
	case ActionFinish:
		// An empty answer is handled by the orchestrator, not here.
	default:
		return nil, fmt.Errorf("unknown action %q", action.Type)
	}

	return &action, nil
}
