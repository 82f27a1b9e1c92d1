package implementation

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"ai-shopflow-be/internal/entity"
	"ai-shopflow-be/internal/mapper"
	"ai-shopflow-be/internal/model"
	"ai-shopflow-be/internal/repository/contract"
)

type SessionArchiveRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ArchiveMapper
}

func NewSessionArchiveRepository(db *gorm.DB) contract.SessionArchiveRepository {
	return &SessionArchiveRepositoryImpl{
		db:     db,
		mapper: mapper.NewArchiveMapper(),
	}
}

func (r *SessionArchiveRepositoryImpl) Create(ctx context.Context, archive *entity.SessionArchive) error {
	m := r.mapper.ToModel(archive)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*archive = *r.mapper.ToEntity(m)
	return nil
}

func (r *SessionArchiveRepositoryImpl) FindBySessionID(ctx context.Context, sessionID string) (*entity.SessionArchive, error) {
	var m model.SessionArchive
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SessionArchiveRepositoryImpl) FindRecentByUserID(ctx context.Context, userID string, limit int) ([]*entity.SessionArchive, error) {
	var ms []model.SessionArchive
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("archived_at DESC").
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}

	out := make([]*entity.SessionArchive, 0, len(ms))
	for i := range ms {
		out = append(out, r.mapper.ToEntity(&ms[i]))
	}
	return out, nil
}
