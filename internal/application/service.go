package application

import (
	"context"
	"strings"

	"github.com/atvirokodosprendimai/maintlog/internal/domain"
)

type RecordService struct {
	repo domain.RecordRepository
	auth *Authenticator
}

// NewRecordService wires the record operations to repo. A nil auth disables
// the credential gate.
func NewRecordService(repo domain.RecordRepository, auth *Authenticator) *RecordService {
	return &RecordService{repo: repo, auth: auth}
}

func (s *RecordService) CreateRecord(ctx context.Context, in domain.RecordInput) (domain.Record, error) {
	value := domain.Record{
		Category:     in.Category,
		ModelName:    in.ModelName,
		SerialNumber: in.SerialNumber,
		Content:      in.Content,
	}
	if in.Date != nil && strings.TrimSpace(*in.Date) != "" {
		d, err := domain.ParseDate(strings.TrimSpace(*in.Date))
		if err != nil {
			return domain.Record{}, err
		}
		value.Date = &d
	}

	return s.repo.CreateRecord(ctx, value)
}

func (s *RecordService) SearchRecords(ctx context.Context, query, category string) ([]domain.Record, error) {
	return s.repo.SearchRecords(ctx, domain.SearchQuery{Text: query, Category: category})
}

func (s *RecordService) DeleteRecord(ctx context.Context, id uint) error {
	if id == 0 {
		return &domain.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return s.repo.DeleteRecord(ctx, id)
}

func (s *RecordService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
