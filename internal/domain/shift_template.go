package domain

import (
	"time"
)

type TemplateStatus string

const (
	TemplateStatusActive   TemplateStatus = "ACTIVE"
	TemplateStatusInactive TemplateStatus = "INACTIVE"
)

type PositionRequirement struct {
	PositionID int64 `json:"positionID"`
	Quantity   int32 `json:"quantity"`
}

// ShiftTemplate 是门店的周期性班次定义。
// StartTime 和 EndTime 的格式为 "15:04:05"，允许 EndTime 早于 StartTime（跨夜班次），
// 时间重叠的判断必须显式处理跨夜，而不能假设同一天内 start < end。
type ShiftTemplate struct {
	ID             int64                 `json:"id"`
	BranchID       int64                 `json:"branchID"`
	Name           string                `json:"name"`
	StartTime      string                `json:"startTime"`
	EndTime        string                `json:"endTime"`
	ApplicableDays []int32               `json:"applicableDays"` // 1~7，周一为 1
	Requirements   []PositionRequirement `json:"requirements"`
	Status         TemplateStatus        `json:"status"`
	CreatedAt      time.Time             `json:"createdAt"`
	Version        int32                 `json:"-"`
}
