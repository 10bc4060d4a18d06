package mapper

import (
	"encoding/json"
	"time"

	"docuchat-be/internal/entity"
	"docuchat-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	var pages []entity.Page
	if len(d.Pages) > 0 {
		// A record with corrupt page metadata still maps; ingestion
		// falls back to treating the raw text as a single page.
		_ = json.Unmarshal(d.Pages, &pages)
	}

	return &entity.Document{
		Id:         d.Id,
		UserId:     d.UserId,
		ChatId:     d.ChatId,
		Filename:   d.Filename,
		Status:     d.Status,
		RawText:    d.RawText,
		Pages:      pages,
		StorageRef: d.StorageRef,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	var pages datatypes.JSON
	if len(d.Pages) > 0 {
		if raw, err := json.Marshal(d.Pages); err == nil {
			pages = datatypes.JSON(raw)
		}
	}

	return &model.Document{
		Id:         d.Id,
		UserId:     d.UserId,
		ChatId:     d.ChatId,
		Filename:   d.Filename,
		Status:     d.Status,
		RawText:    d.RawText,
		Pages:      pages,
		StorageRef: d.StorageRef,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

func (m *DocumentMapper) ToModels(docs []*entity.Document) []*model.Document {
	models := make([]*model.Document, len(docs))
	for i, d := range docs {
		models[i] = m.ToModel(d)
	}
	return models
}
