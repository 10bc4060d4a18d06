package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docuchat-be/pkg/llm"
	"docuchat-be/pkg/store"
)

// DefaultMaxIterations is the hard ceiling of the reasoning loop.
const DefaultMaxIterations = 15

const exhaustedAnswer = "I was unable to determine a complete answer within the allotted reasoning steps."

// RunResult is the outcome of one agent run. ResponseText is never empty;
// on total failure it is a human-readable error string with no sources.
type RunResult struct {
	ResponseText string
	Sources      []store.Source
}

// observation is one executed step of the run, fed back into the next
// tool-selection decision.
type observation struct {
	Tool   string
	Input  string
	Answer string
}

// Orchestrator runs the bounded tool-selection/invocation loop for a single
// query. Tool invocation is strictly sequential; sources from every
// invocation are concatenated in invocation order and not deduplicated here.
type Orchestrator struct {
	llmProvider   llm.LLMProvider
	maxIterations int
	logger        *log.Logger
}

func NewOrchestrator(llmProvider llm.LLMProvider, maxIterations int, logger *log.Logger) *Orchestrator {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Orchestrator{
		llmProvider:   llmProvider,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// AssembleTools builds the tool set for a run: the general-knowledge
// fallback first, then the per-document pairs.
func AssembleTools(llmProvider llm.LLMProvider, logger *log.Logger, documentTools ...Tool) []Tool {
	tools := make([]Tool, 0, len(documentTools)+1)
	tools = append(tools, newFallbackTool(llmProvider, logger))
	tools = append(tools, documentTools...)
	return tools
}

// Run answers one query. The loop ends when the model declares completion,
// when the iteration ceiling is reached (best partial answer wins), or when
// the model's output stays unparseable after one corrective retry.
func (o *Orchestrator) Run(ctx context.Context, query string, history []llm.Message, tools []Tool) *RunResult {
	toolIndex := make(map[string]Tool, len(tools))
	for _, t := range tools {
		toolIndex[t.Name()] = t
	}

	var observations []observation
	var sources []store.Source

	for iteration := 1; iteration <= o.maxIterations; iteration++ {
		raw, err := o.llmProvider.Chat(ctx,
			o.buildMessages(query, history, tools, observations),
			llm.WithTemperature(0.0),
		)
		if err != nil {
			o.logger.Printf("[ERROR] Tool selection failed at iteration %d: %v", iteration, err)
			if len(observations) > 0 {
				return &RunResult{ResponseText: o.bestPartial(observations), Sources: sources}
			}
			return &RunResult{
				ResponseText: "Sorry, an error occurred while answering your question.",
				Sources:      []store.Source{},
			}
		}

		action, ok := o.decodeWithRetry(ctx, query, history, tools, observations, raw)
		if !ok {
			o.logger.Printf("[WARN] Unparseable tool selection, ending run at iteration %d", iteration)
			return &RunResult{ResponseText: o.bestPartial(observations), Sources: sources}
		}

		if action.Type == ActionFinish {
			answer := strings.TrimSpace(action.Answer)
			if answer == "" {
				answer = o.bestPartial(observations)
			}
			o.logger.Printf("[DEBUG] Run finished after %d iteration(s)", iteration)
			return &RunResult{ResponseText: answer, Sources: sources}
		}

		tool := toolIndex[action.Tool]
		result := tool.Invoke(ctx, action.Input)

		// A degraded tool result is a normal observation; the next selection
		// decision sees it and moves on.
		observations = append(observations, observation{
			Tool:   action.Tool,
			Input:  action.Input,
			Answer: result.AnswerText,
		})
		sources = append(sources, result.Sources...)
	}

	o.logger.Printf("[WARN] Iteration ceiling (%d) reached, returning best partial answer", o.maxIterations)
	return &RunResult{ResponseText: o.bestPartial(observations), Sources: sources}
}

// decodeWithRetry parses the model reply into a valid action against the
// known tool set, re-prompting once on failure.
func (o *Orchestrator) decodeWithRetry(
	ctx context.Context,
	query string,
	history []llm.Message,
	tools []Tool,
	observations []observation,
	raw string,
) (*Action, bool) {
	action, err := o.validAction(raw, tools)
	if err == nil {
		return action, true
	}

	o.logger.Printf("[DEBUG] Action decode failed (%v), asking the model to retry", err)

	messages := o.buildMessages(query, history, tools, observations)
	messages = append(messages,
		llm.Message{Role: "assistant", Content: raw},
		llm.Message{Role: "user", Content: fmt.Sprintf(
			"That reply could not be used: %v. Respond again with ONLY a single valid JSON object in the required format, nothing else.", err,
		)},
	)

	retryRaw, chatErr := o.llmProvider.Chat(ctx, messages, llm.WithTemperature(0.0))
	if chatErr != nil {
		return nil, false
	}
	action, err = o.validAction(retryRaw, tools)
	if err != nil {
		return nil, false
	}
	return action, true
}

func (o *Orchestrator) validAction(raw string, tools []Tool) (*Action, error) {
	action, err := ParseAction(raw)
	if err != nil {
		return nil, err
	}
	if action.Type == ActionSelectTool {
		found := false
		for _, t := range tools {
			if t.Name() == action.Tool {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown tool %q", action.Tool)
		}
	}
	return action, nil
}

func (o *Orchestrator) buildMessages(query string, history []llm.Message, tools []Tool, observations []observation) []llm.Message {
	var prompt strings.Builder

	prompt.WriteString("You are answering a user's question by choosing tools.\n\n")
	prompt.WriteString("<available_tools>\n")
	for _, t := range tools {
		prompt.WriteString(fmt.Sprintf("- %s: %s\n", t.Name(), t.Description()))
	}
	prompt.WriteString("</available_tools>\n\n")

	if len(observations) > 0 {
		prompt.WriteString("<tool_results>\n")
		for i, obs := range observations {
			prompt.WriteString(fmt.Sprintf("%d. %s(%q) -> %s\n", i+1, obs.Tool, obs.Input, obs.Answer))
		}
		prompt.WriteString("</tool_results>\n\n")
	}

	prompt.WriteString("Decide the next step. Reply with ONLY one JSON object, no other text:\n")
	prompt.WriteString(`- to invoke a tool: {"action":"tool","tool":"<name>","input":"<query for the tool>"}` + "\n")
	prompt.WriteString(`- when the tool results answer the question: {"action":"finish","answer":"<final answer>"}` + "\n\n")
	prompt.WriteString("Question: " + query)

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: prompt.String()})
	return messages
}

func (o *Orchestrator) bestPartial(observations []observation) string {
	for i := len(observations) - 1; i >= 0; i-- {
		if strings.TrimSpace(observations[i].Answer) != "" {
			return observations[i].Answer
		}
	}
	return exhaustedAnswer
}
