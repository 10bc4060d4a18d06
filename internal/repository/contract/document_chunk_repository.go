package contract

import (
	"context"

	"docuchat-be/internal/entity"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/pkg/store"

	"github.com/google/uuid"
)

type DocumentChunkRepository interface {
	Create(ctx context.Context, chunk *entity.DocumentChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar runs a cosine-distance nearest-neighbour search restricted
	// to the exact tenant scope. Results come back in database order, most
	// similar first, joined with the owning document for its display name.
	SearchSimilar(ctx context.Context, embedding []float32, scope store.TenantScope, limit int) ([]store.ScoredChunk, error)
}
