package domain

import "time"

// ShiftOccurrence 是某个门店某一天的具体班次。
// Requirements 在创建时从模板按值拷贝，此后模板的修改不会影响已经排好的班次。
// TemplateID 为 nil 表示这是一个临时加开的班次（不来源于任何模板）。
type ShiftOccurrence struct {
	ID           int64                 `json:"id"`
	TemplateID   *int64                `json:"templateID"`
	BranchID     int64                 `json:"branchID"`
	Date         string                `json:"date"` // "2006-01-02"
	StartTime    string                `json:"startTime"`
	EndTime      string                `json:"endTime"`
	Requirements []PositionRequirement `json:"requirements"`
	CreatedAt    time.Time             `json:"createdAt"`
	Version      int32                 `json:"-"`
}
