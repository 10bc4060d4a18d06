package service

import (
	"context"
	"log"

	"docuchat-be/internal/dto"
	"docuchat-be/internal/repository/sessionstore"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/agent"
	"docuchat-be/pkg/events"
	"docuchat-be/pkg/llm"
	pkgNats "docuchat-be/pkg/nats"
	"docuchat-be/pkg/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type IQueryService interface {
	Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
}

// ToolBuilder produces the per-document tool pair handed to the agent.
type ToolBuilder interface {
	BuildTools(scope store.TenantScope, documentName string) (agent.Tool, agent.Tool, error)
}

// AgentRunner drives the tool-selection loop to a candidate answer.
type AgentRunner interface {
	Run(ctx context.Context, query string, history []llm.Message, tools []agent.Tool) *agent.RunResult
}

// AnswerEvaluator judges whether a candidate answer actually addresses
// the question.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, query, candidate string) agent.Verdict
}

type queryService struct {
	sessions       sessionstore.SessionStore
	uowFactory     unitofwork.RepositoryFactory
	toolBuilder    ToolBuilder
	runner         AgentRunner
	evaluator      AnswerEvaluator
	llmProvider    llm.LLMProvider
	eventPublisher *pkgNats.Publisher
	logger         *zap.Logger
	llmLogger      *log.Logger
}

func NewQueryService(
	sessions sessionstore.SessionStore,
	uowFactory unitofwork.RepositoryFactory,
	toolBuilder ToolBuilder,
	runner AgentRunner,
	evaluator AnswerEvaluator,
	llmProvider llm.LLMProvider,
	eventPublisher *pkgNats.Publisher,
	logger *zap.Logger,
	llmLogger *log.Logger,
) IQueryService {
	return &queryService{
		sessions:       sessions,
		uowFactory:     uowFactory,
		toolBuilder:    toolBuilder,
		runner:         runner,
		evaluator:      evaluator,
		llmProvider:    llmProvider,
		eventPublisher: eventPublisher,
		logger:         logger,
		llmLogger:      llmLogger,
	}
}

func (s *queryService) Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	scope := store.TenantScope{UserId: req.UserId, ChatId: req.ChatId}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	turns, err := s.sessions.History(ctx, req.UserId, req.ChatId)
	if err != nil {
		return nil, err
	}
	history := turnsToMessages(turns)

	documentTools, err := s.buildDocumentTools(ctx, scope)
	if err != nil {
		return nil, err
	}

	tools := agent.AssembleTools(s.llmProvider, s.llmLogger, documentTools...)
	result := s.runner.Run(ctx, req.Query, history, tools)

	responseText := result.ResponseText
	sources := result.Sources

	if verdict := s.evaluator.Evaluate(ctx, req.Query, responseText); verdict == agent.VerdictBad {
		s.logger.Info("candidate answer rejected, falling back to unscoped generation",
			zap.String("chat_id", req.ChatId))
		fallback, genErr := s.llmProvider.Generate(ctx, req.Query)
		if genErr != nil {
			s.logger.Warn("fallback generation failed, keeping candidate answer", zap.Error(genErr))
		} else {
			responseText = fallback
			sources = nil // A fallback answer cites nothing
		}
	}

	sources = dedupSources(sources)

	turn := store.ChatTurn{Query: req.Query, Response: responseText}
	if err := s.sessions.AppendTurn(ctx, req.UserId, req.ChatId, turn); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewChatTurnAppended(req.UserId, req.ChatId))

	resp := &dto.QueryResponse{
		Response: responseText,
		Sources:  make([]dto.SourceResponse, len(sources)),
	}
	for i, src := range sources {
		resp.Sources[i] = dto.SourceResponse{
			Snippet:      src.Snippet,
			PageLabel:    src.PageLabel,
			DocumentName: src.DocumentName,
		}
	}
	return resp, nil
}

// buildDocumentTools loads the chat's ready documents and constructs the
// search and summary tool for each. Documents still processing are skipped;
// they become queryable once ingestion finishes.
func (s *queryService) buildDocumentTools(ctx context.Context, scope store.TenantScope) ([]agent.Tool, error) {
	docIds, err := s.sessions.DocumentIds(ctx, scope.UserId, scope.ChatId)
	if err != nil {
		return nil, err
	}
	if len(docIds) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(docIds))
	for _, id := range docIds {
		parsed, err := uuid.Parse(id)
		if err != nil {
			s.logger.Warn("skipping malformed document id in session", zap.String("document_id", id))
			continue
		}
		ids = append(ids, parsed)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByIDs{IDs: ids},
		specification.OwnedByTenant{UserId: scope.UserId, ChatId: scope.ChatId},
		specification.ByStatus{Status: store.DocumentStatusReady},
	)
	if err != nil {
		return nil, err
	}

	var tools []agent.Tool
	for _, document := range documents {
		docScope := scope.WithDocument(document.Id.String())
		searchTool, summaryTool, err := s.toolBuilder.BuildTools(docScope, document.Filename)
		if err != nil {
			return nil, err
		}
		tools = append(tools, searchTool, summaryTool)
	}
	return tools, nil
}

func (s *queryService) publishEvent(ctx context.Context, evt events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event_type", evt.EventType()), zap.Error(err))
	}
}

func turnsToMessages(turns []store.ChatTurn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns)*2)
	for _, turn := range turns {
		messages = append(messages,
			llm.Message{Role: "user", Content: turn.Query},
			llm.Message{Role: "assistant", Content: turn.Response},
		)
	}
	return messages
}

// dedupSources drops exact duplicates while keeping first-seen order.
func dedupSources(sources []store.Source) []store.Source {
	if len(sources) == 0 {
		return nil
	}
	seen := make(map[store.Source]struct{}, len(sources))
	deduped := make([]store.Source, 0, len(sources))
	for _, src := range sources {
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		deduped = append(deduped, src)
	}
	return deduped
}
