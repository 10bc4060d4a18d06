package agent

import (
	"context"
	"errors"
	"io"
	"log"

	"docuchat-be/pkg/llm"
	"docuchat-be/pkg/rag"
	"docuchat-be/pkg/store"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// fakeLLM replays scripted responses. Chat and Generate consume separate
// queues so a test can script the selection loop and tool completions
// independently.
type fakeLLM struct {
	chatReplies     []string
	generateReplies []string
	chatCalls       int
	generateCalls   int
	chatErr         error
	generateErr     error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.chatCalls++
	if f.chatErr != nil {
		return "", f.chatErr
	}
	if len(f.chatReplies) == 0 {
		return "", errors.New("fakeLLM: chat script exhausted")
	}
	reply := f.chatReplies[0]
	f.chatReplies = f.chatReplies[1:]
	return reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.generateCalls++
	if f.generateErr != nil {
		return "", f.generateErr
	}
	if len(f.generateReplies) == 0 {
		return "", errors.New("fakeLLM: generate script exhausted")
	}
	reply := f.generateReplies[0]
	f.generateReplies = f.generateReplies[1:]
	return reply, nil
}

// fakeRetriever records every call and replays a fixed result or error.
type fakeRetriever struct {
	result *rag.Result
	err    error

	calls      int
	lastScope  store.TenantScope
	lastQuery  string
	lastMode   rag.Mode
}

func (f *fakeRetriever) Retrieve(ctx context.Context, scope store.TenantScope, query string, mode rag.Mode) (*rag.Result, error) {
	f.calls++
	f.lastScope = scope
	f.lastQuery = query
	f.lastMode = mode
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &rag.Result{Sources: []store.Source{}}, nil
}

// stubTool returns a canned result and counts invocations.
type stubTool struct {
	name        string
	description string
	result      store.ToolResult
	invocations int
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return s.description }

func (s *stubTool) Invoke(ctx context.Context, query string) store.ToolResult {
	s.invocations++
	return s.result
}
