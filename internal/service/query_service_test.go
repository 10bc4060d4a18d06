package service

import (
	"context"
	"io"
	"log"
	"testing"

	"docuchat-be/internal/dto"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/repository/contract"
	"docuchat-be/internal/repository/sessionstore"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/agent"
	"docuchat-be/pkg/llm"
	"docuchat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- fakes ---

type fakeLLM struct {
	generateReply string
	generateErr   error
	generateCalls int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return "", nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	f.generateCalls++
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.generateReply, nil
}

type fakeRunner struct {
	result    *agent.RunResult
	lastQuery string
	toolCount int
}

func (f *fakeRunner) Run(ctx context.Context, query string, history []llm.Message, tools []agent.Tool) *agent.RunResult {
	f.lastQuery = query
	f.toolCount = len(tools)
	return f.result
}

type fakeEvaluator struct {
	verdict agent.Verdict
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, query, candidate string) agent.Verdict {
	return f.verdict
}

type fakeToolBuilder struct {
	scopes []store.TenantScope
	names  []string
}

func (f *fakeToolBuilder) BuildTools(scope store.TenantScope, documentName string) (agent.Tool, agent.Tool, error) {
	f.scopes = append(f.scopes, scope)
	f.names = append(f.names, documentName)
	search := &staticTool{name: "search_" + documentName}
	summary := &staticTool{name: "summarize_" + documentName}
	return search, summary, nil
}

type staticTool struct {
	name string
}

func (t *staticTool) Name() string        { return t.name }
func (t *staticTool) Description() string { return t.name }
func (t *staticTool) Invoke(ctx context.Context, query string) store.ToolResult {
	return store.ToolResult{AnswerText: "", Sources: []store.Source{}}
}

type fakeDocumentRepo struct {
	contract.DocumentRepository
	documents []*entity.Document
	lastSpecs []specification.Specification
}

func (f *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	f.lastSpecs = specs
	return f.documents, nil
}

type fakeUow struct {
	unitofwork.UnitOfWork
	docs *fakeDocumentRepo
}

func (f *fakeUow) DocumentRepository() contract.DocumentRepository { return f.docs }

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

// --- helpers ---

type queryFixture struct {
	svc      IQueryService
	sessions sessionstore.SessionStore
	runner   *fakeRunner
	builder  *fakeToolBuilder
	llm      *fakeLLM
	docs     *fakeDocumentRepo
}

func newQueryFixture(t *testing.T, verdict agent.Verdict, result *agent.RunResult) *queryFixture {
	t.Helper()

	sessions := sessionstore.NewMemorySessionStore()
	docs := &fakeDocumentRepo{}
	runner := &fakeRunner{result: result}
	builder := &fakeToolBuilder{}
	provider := &fakeLLM{generateReply: "general knowledge answer"}

	svc := NewQueryService(
		sessions,
		&fakeUowFactory{uow: &fakeUow{docs: docs}},
		builder,
		runner,
		&fakeEvaluator{verdict: verdict},
		provider,
		nil,
		zap.NewNop(),
		log.New(io.Discard, "", 0),
	)

	return &queryFixture{
		svc:      svc,
		sessions: sessions,
		runner:   runner,
		builder:  builder,
		llm:      provider,
		docs:     docs,
	}
}

func dtoQuery(userId, chatId, query string) *dto.QueryRequest {
	return &dto.QueryRequest{UserId: userId, ChatId: chatId, Query: query}
}

func readyDocument(userId, chatId, filename string) *entity.Document {
	return &entity.Document{
		Id:       uuid.New(),
		UserId:   userId,
		ChatId:   chatId,
		Filename: filename,
		Status:   store.DocumentStatusReady,
	}
}

// --- tests ---

func TestQueryService_GoodAnswerKeepsSources(t *testing.T) {
	result := &agent.RunResult{
		ResponseText: "The report covers Q3 revenue.",
		Sources: []store.Source{
			{Snippet: "Q3 revenue grew", PageLabel: "2", DocumentName: "report.pdf"},
		},
	}
	fx := newQueryFixture(t, agent.VerdictGood, result)

	resp, err := fx.svc.Query(context.Background(), dtoQuery("u1", "c1", "what does the report cover?"))
	require.NoError(t, err)

	assert.Equal(t, "The report covers Q3 revenue.", resp.Response)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "report.pdf", resp.Sources[0].DocumentName)
	assert.Zero(t, fx.llm.generateCalls, "no fallback generation on a good answer")
}

func TestQueryService_BadAnswerFallsBackWithoutSources(t *testing.T) {
	result := &agent.RunResult{
		ResponseText: "I could not find anything useful.",
		Sources: []store.Source{
			{Snippet: "irrelevant", PageLabel: "1", DocumentName: "report.pdf"},
		},
	}
	fx := newQueryFixture(t, agent.VerdictBad, result)

	resp, err := fx.svc.Query(context.Background(), dtoQuery("u1", "c1", "who won the 1998 world cup?"))
	require.NoError(t, err)

	assert.Equal(t, "general knowledge answer", resp.Response)
	assert.Empty(t, resp.Sources, "a substituted answer must not carry residual sources")
	assert.Equal(t, 1, fx.llm.generateCalls)
}

func TestQueryService_FallbackFailureKeepsCandidate(t *testing.T) {
	result := &agent.RunResult{ResponseText: "partial answer", Sources: []store.Source{}}
	fx := newQueryFixture(t, agent.VerdictBad, result)
	fx.llm.generateErr = context.DeadlineExceeded

	resp, err := fx.svc.Query(context.Background(), dtoQuery("u1", "c1", "anything"))
	require.NoError(t, err)

	assert.Equal(t, "partial answer", resp.Response)
}

func TestQueryService_DeduplicatesSources(t *testing.T) {
	src := store.Source{Snippet: "same snippet", PageLabel: "3", DocumentName: "doc.pdf"}
	other := store.Source{Snippet: "other", PageLabel: "1", DocumentName: "doc.pdf"}
	result := &agent.RunResult{
		ResponseText: "answer",
		Sources:      []store.Source{src, other, src, src},
	}
	fx := newQueryFixture(t, agent.VerdictGood, result)

	resp, err := fx.svc.Query(context.Background(), dtoQuery("u1", "c1", "q"))
	require.NoError(t, err)

	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "same snippet", resp.Sources[0].Snippet, "first-seen order survives dedup")
	assert.Equal(t, "other", resp.Sources[1].Snippet)
}

func TestQueryService_BuildsToolsWithDocumentScope(t *testing.T) {
	result := &agent.RunResult{ResponseText: "answer", Sources: []store.Source{}}
	fx := newQueryFixture(t, agent.VerdictGood, result)

	docA := readyDocument("u1", "c1", "alpha.pdf")
	docB := readyDocument("u1", "c1", "beta.pdf")
	fx.docs.documents = []*entity.Document{docA, docB}

	ctx := context.Background()
	require.NoError(t, fx.sessions.RegisterDocument(ctx, "u1", "c1", docA.Id.String()))
	require.NoError(t, fx.sessions.RegisterDocument(ctx, "u1", "c1", docB.Id.String()))

	_, err := fx.svc.Query(ctx, dtoQuery("u1", "c1", "q"))
	require.NoError(t, err)

	require.Len(t, fx.builder.scopes, 2)
	for _, scope := range fx.builder.scopes {
		assert.Equal(t, "u1", scope.UserId)
		assert.Equal(t, "c1", scope.ChatId)
		assert.NoError(t, scope.ValidateDocument(), "tool scope always pins a document")
	}
	// Two tools per document plus the general knowledge fallback
	assert.Equal(t, 5, fx.runner.toolCount)
}

func TestQueryService_AppendsTurnToHistory(t *testing.T) {
	result := &agent.RunResult{ResponseText: "the answer", Sources: []store.Source{}}
	fx := newQueryFixture(t, agent.VerdictGood, result)

	_, err := fx.svc.Query(context.Background(), dtoQuery("u1", "c1", "the question"))
	require.NoError(t, err)

	turns, err := fx.sessions.History(context.Background(), "u1", "c1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "the question", turns[0].Query)
	assert.Equal(t, "the answer", turns[0].Response)
}

func TestQueryService_ForeignUserGetsNoDocumentTools(t *testing.T) {
	result := &agent.RunResult{ResponseText: "answer", Sources: []store.Source{}}
	fx := newQueryFixture(t, agent.VerdictGood, result)

	doc := readyDocument("u1", "c1", "report.pdf")
	fx.docs.documents = []*entity.Document{doc}

	ctx := context.Background()
	require.NoError(t, fx.sessions.RegisterDocument(ctx, "u1", "c1", doc.Id.String()))

	// Another user querying the same chat id has no registered documents,
	// so only the general knowledge fallback is available.
	_, err := fx.svc.Query(ctx, dtoQuery("u2", "c1", "summarize report.pdf"))
	require.NoError(t, err)

	assert.Empty(t, fx.builder.scopes, "no document tool is built for a foreign user")
	assert.Equal(t, 1, fx.runner.toolCount)
}

func TestQueryService_RejectsIncompleteScope(t *testing.T) {
	fx := newQueryFixture(t, agent.VerdictGood, &agent.RunResult{})

	_, err := fx.svc.Query(context.Background(), dtoQuery("", "c1", "q"))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrScopeViolation)
}
