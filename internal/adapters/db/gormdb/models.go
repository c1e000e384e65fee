package gormdb

import (
	"time"

	"github.com/atvirokodosprendimai/maintlog/internal/domain"
)

type RecordModel struct {
	ID           uint       `gorm:"primaryKey"`
	Category     *string    `gorm:"column:category"`
	Date         *time.Time `gorm:"column:date;type:date;index"`
	ModelName    *string    `gorm:"column:model_name;index"`
	SerialNumber *string    `gorm:"column:serial_number;index"`
	Content      *string    `gorm:"column:content;type:text"`
}

func (RecordModel) TableName() string { return "maintenance_records" }

func recordToModel(value domain.Record) RecordModel {
	m := RecordModel{
		Category:     value.Category,
		ModelName:    value.ModelName,
		SerialNumber: value.SerialNumber,
		Content:      value.Content,
	}
	if value.Date != nil {
		t := value.Date.Time()
		m.Date = &t
	}
	return m
}

func modelToRecord(m RecordModel) domain.Record {
	out := domain.Record{
		ID:           m.ID,
		Category:     m.Category,
		ModelName:    m.ModelName,
		SerialNumber: m.SerialNumber,
		Content:      m.Content,
	}
	if m.Date != nil {
		d := domain.DateOf(*m.Date)
		out.Date = &d
	}
	return out
}
