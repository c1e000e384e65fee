package domain

import "context"

type RecordRepository interface {
	CreateRecord(ctx context.Context, value Record) (Record, error)
	SearchRecords(ctx context.Context, query SearchQuery) ([]Record, error)
	DeleteRecord(ctx context.Context, id uint) error
	CountRecords(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}
