package gormdb

import (
	"context"

	"github.com/atvirokodosprendimai/maintlog/internal/domain"
	"gorm.io/gorm"
)

type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) CreateRecord(ctx context.Context, value domain.Record) (domain.Record, error) {
	m := recordToModel(value)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Record{}, &domain.StorageError{Op: "create record", Err: err}
	}

	return modelToRecord(m), nil
}

func (r *RecordRepository) SearchRecords(ctx context.Context, query domain.SearchQuery) ([]domain.Record, error) {
	q := applySearch(r.db.WithContext(ctx).Model(&RecordModel{}), query)

	rows := make([]RecordModel, 0)
	if err := q.Find(&rows).Error; err != nil {
		return nil, &domain.StorageError{Op: "search records", Err: err}
	}

	result := make([]domain.Record, 0, len(rows))
	for _, m := range rows {
		result = append(result, modelToRecord(m))
	}
	return result, nil
}

func (r *RecordRepository) DeleteRecord(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&RecordModel{})
	if res.Error != nil {
		return &domain.StorageError{Op: "delete record", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{ID: id}
	}
	return nil
}

func (r *RecordRepository) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&RecordModel{}).Count(&count).Error; err != nil {
		return 0, &domain.StorageError{Op: "count records", Err: err}
	}
	return count, nil
}

func (r *RecordRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return &domain.StorageError{Op: "ping", Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &domain.StorageError{Op: "ping", Err: err}
	}
	return nil
}
