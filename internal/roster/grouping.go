package roster

import (
	"github.com/juhe-dining/roster/backend/internal/domain"
)

// GroupedAssignments: 岗位 -> 员工 -> 日期 -> 排班列表。
type GroupedAssignments map[int64]map[int64]map[string][]*domain.AssignmentView

// GroupAssignments 把排班视图按 岗位/员工/日期 分组，纯粹用于展示。
// 每次查询都从排班记录重新构建，不维护可变的分组结构，避免数据过期。
func GroupAssignments(views []*domain.AssignmentView) GroupedAssignments {
	grouped := make(GroupedAssignments)
	for _, view := range views {
		byUser, ok := grouped[view.PositionID]
		if !ok {
			byUser = make(map[int64]map[string][]*domain.AssignmentView)
			grouped[view.PositionID] = byUser
		}

		byDate, ok := byUser[view.UserID]
		if !ok {
			byDate = make(map[string][]*domain.AssignmentView)
			byUser[view.UserID] = byDate
		}

		byDate[view.Date] = append(byDate[view.Date], view)
	}
	return grouped
}
