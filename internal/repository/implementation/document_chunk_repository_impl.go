package implementation

import (
	"context"

	"docuchat-be/internal/entity"
	"docuchat-be/internal/mapper"
	"docuchat-be/internal/model"
	"docuchat-be/internal/repository/contract"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.DocumentChunk) error {
	m := r.mapper.ToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	// Hard delete: stale chunks must never surface in a similarity search
	return r.db.WithContext(ctx).Unscoped().
		Where("document_id = ?", documentId).
		Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	var models []*model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.DocumentChunk{}).Count(&count).Error
	return count, err
}

// SearchSimilar performs a cosine-distance search scoped to one tenant and
// one document. The scope filter is exact equality on all three identifiers;
// a chunk outside the scope is unreachable no matter how similar it is.
func (r *DocumentChunkRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, scope store.TenantScope, limit int) ([]store.ScoredChunk, error) {
	if err := scope.ValidateDocument(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding_value <=> query_vector) recovers the similarity.
	type result struct {
		model.DocumentChunk
		Filename   string
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, documents.filename, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("document_chunks.user_id = ?", scope.UserId).
		Where("document_chunks.chat_id = ?", scope.ChatId).
		Where("document_chunks.document_id = ?", scope.DocumentId).
		Where("document_chunks.deleted_at IS NULL").
		Where("documents.deleted_at IS NULL").
		Order(gorm.Expr("embedding_value <=> ?", queryVector)).
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]store.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = store.ScoredChunk{
			Chunk: store.Chunk{
				Text: res.Text,
				Scope: store.TenantScope{
					UserId:     res.UserId,
					ChatId:     res.ChatId,
					DocumentId: res.DocumentId.String(),
				},
				PageLabel:    res.PageLabel,
				DocumentName: res.Filename,
			},
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
