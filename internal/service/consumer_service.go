package service

import (
	"context"
	"encoding/json"
	"time"

	"docuchat-be/internal/dto"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/repository/sessionstore"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/embedding"
	"docuchat-be/pkg/events"
	pkgNats "docuchat-be/pkg/nats"
	"docuchat-be/pkg/store"
	"docuchat-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ingestChunkSize    = 1500
	ingestChunkOverlap = 200
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	sessions          sessionstore.SessionStore
	eventPublisher    *pkgNats.Publisher
	logger            *zap.Logger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	sessions sessionstore.SessionStore,
	eventPublisher *pkgNats.Publisher,
	logger *zap.Logger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		sessions:          sessions,
		eventPublisher:    eventPublisher,
		logger:            logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("failed to unmarshal ingest message", zap.Error(err))
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("processing document ingestion", zap.String("document_id", payload.DocumentId.String()))

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		cs.logger.Error("failed to load document", zap.String("document_id", payload.DocumentId.String()), zap.Error(err))
		msg.Nack() // Retriable
		return
	}
	if document == nil {
		cs.logger.Warn("document not found, dropping message", zap.String("document_id", payload.DocumentId.String()))
		msg.Ack()
		return
	}

	pages := document.Pages
	if len(pages) == 0 {
		// Records written before page metadata existed carry raw text only
		pages = []entity.Page{{Label: "1", Text: document.RawText}}
	}

	var chunks []*entity.DocumentChunk
	chunkIndex := 0
	for _, page := range pages {
		for _, text := range utils.SplitText(page.Text, ingestChunkSize, ingestChunkOverlap) {
			res, err := cs.embeddingProvider.Generate(text, embedding.TaskRetrievalDocument)
			if err != nil {
				cs.logger.Error("embedding generation failed",
					zap.String("document_id", document.Id.String()),
					zap.Int("chunk_index", chunkIndex),
					zap.Error(err))
				cs.markFailed(ctx, uow, document, err.Error())
				msg.Ack() // Terminal: the document is marked failed
				return
			}

			chunks = append(chunks, &entity.DocumentChunk{
				Id:             uuid.New(),
				Text:           text,
				EmbeddingValue: res.Embedding.Values,
				UserId:         document.UserId,
				ChatId:         document.ChatId,
				DocumentId:     document.Id,
				PageLabel:      page.Label,
				ChunkIndex:     chunkIndex,
				CreatedAt:      time.Now(),
			})
			chunkIndex++
		}
	}

	if err := uow.Begin(ctx); err != nil {
		cs.logger.Error("failed to begin transaction", zap.Error(err))
		msg.Nack()
		return
	}
	defer uow.Rollback()

	// Re-ingestion replaces chunks wholesale so a retry never double-indexes
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		cs.logger.Error("failed to delete stale chunks", zap.Error(err))
		msg.Nack()
		return
	}

	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunks); err != nil {
		cs.logger.Error("failed to persist chunks", zap.Error(err))
		msg.Nack()
		return
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, store.DocumentStatusReady); err != nil {
		cs.logger.Error("failed to mark document ready", zap.Error(err))
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		cs.logger.Error("failed to commit ingestion transaction", zap.Error(err))
		msg.Nack()
		return
	}

	// The chat can only select among documents its session knows about
	if err := cs.sessions.RegisterDocument(ctx, document.UserId, document.ChatId, document.Id.String()); err != nil {
		cs.logger.Error("failed to register document in session",
			zap.String("document_id", document.Id.String()), zap.Error(err))
	}

	cs.publishEvent(ctx, events.NewDocumentIngested(document.UserId, document.ChatId, document.Id.String(), len(chunks)))

	cs.logger.Info("document ingested",
		zap.String("document_id", document.Id.String()),
		zap.Int("chunk_count", len(chunks)))
	msg.Ack()
}

func (cs *consumerService) markFailed(ctx context.Context, uow unitofwork.UnitOfWork, document *entity.Document, reason string) {
	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, store.DocumentStatusFailed); err != nil {
		cs.logger.Error("failed to mark document failed",
			zap.String("document_id", document.Id.String()), zap.Error(err))
	}
	cs.publishEvent(ctx, events.NewDocumentFailed(document.UserId, document.ChatId, document.Id.String(), reason))
}

func (cs *consumerService) publishEvent(ctx context.Context, evt events.Event) {
	if cs.eventPublisher == nil {
		return
	}
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		cs.logger.Warn("failed to publish event", zap.String("event_type", evt.EventType()), zap.Error(err))
	}
}
