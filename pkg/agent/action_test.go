package agent

import (
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType string
		wantTool string
		wantErr  bool
	}{
		{
			name:     "tool action",
			raw:      `{"action":"tool","tool":"search_abc","input":"revenue 2023"}`,
			wantType: ActionSelectTool,
			wantTool: "search_abc",
		},
		{
			name:     "finish action",
			raw:      `{"action":"finish","answer":"Revenue was $4M."}`,
			wantType: ActionFinish,
		},
		{
			name:     "json surrounded by prose",
			raw:      "I will search the document.\n{\"action\":\"tool\",\"tool\":\"search_abc\",\"input\":\"q\"}\nDone.",
			wantType: ActionSelectTool,
			wantTool: "search_abc",
		},
		{
			name:    "no json at all",
			raw:     "let me think about this",
			wantErr: true,
		},
		{
			name:    "malformed json",
			raw:     `{"action":"tool","tool":`,
			wantErr: true,
		},
		{
			name:    "unknown action type",
			raw:     `{"action":"dance"}`,
			wantErr: true,
		},
		{
			name:    "tool action without tool name",
			raw:     `{"action":"tool","input":"q"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := ParseAction(tt.raw)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAction(%q) expected error, got %+v", tt.raw, action)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAction(%q) unexpected error: %v", tt.raw, err)
			}
			if action.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", action.Type, tt.wantType)
			}
			if tt.wantTool != "" && action.Tool != tt.wantTool {
				t.Errorf("Tool = %q, want %q", action.Tool, tt.wantTool)
			}
		})
	}
}
