package domain

import "encoding/json"

// 请假子系统通过消息队列把审批结果同步给排班核心。
// 余额是否足够由请假子系统计算，这里只信任 balanceSufficient 字段，
// 避免在排班核心里重复实现假期余额的业务规则。

type LeaveApprovedEvent struct {
	UserID            int64  `json:"userID"`
	StartDate         string `json:"startDate"` // "2006-01-02"，闭区间
	EndDate           string `json:"endDate"`
	BalanceSufficient bool   `json:"balanceSufficient"`
}

type LeaveCancelledEvent struct {
	UserID    int64  `json:"userID"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type LeaveEventMessage struct {
	Type string          `json:"type"` // "leave_approved" 或 "leave_cancelled"
	Data json.RawMessage `json:"data"`
}
