package roster

import (
	"github.com/juhe-dining/roster/backend/internal/domain"
)

type PositionFulfillment struct {
	PositionID int64 `json:"positionID"`
	Required   int32 `json:"required"`
	Assigned   int32 `json:"assigned"`
	Shortfall  int32 `json:"shortfall"`
}

type Fulfillment struct {
	OccurrenceID     int64                 `json:"occurrenceID"`
	PerPosition      []PositionFulfillment `json:"perPosition"`
	IsFullySatisfied bool                  `json:"isFullySatisfied"`
}

// EvaluateFulfillment 按岗位统计某个班次的排班人数是否达到要求。
// assignments 应当是该班次的全部排班视图，只有可计数状态的记录
// 才会按其员工的主岗位计入 assigned。这里每次都从排班记录现算，
// 而不维护一个增量计数器：冲突和请假会异步改变排班状态，计数器迟早漂移。
func EvaluateFulfillment(occ *domain.ShiftOccurrence, assignments []*domain.AssignmentView) *Fulfillment {
	assignedByPosition := make(map[int64]int32)
	for _, view := range assignments {
		if !view.Status.Countable() {
			continue
		}
		assignedByPosition[view.PositionID]++
	}

	result := &Fulfillment{
		OccurrenceID:     occ.ID,
		PerPosition:      make([]PositionFulfillment, 0, len(occ.Requirements)),
		IsFullySatisfied: true,
	}

	for _, req := range occ.Requirements {
		assigned := assignedByPosition[req.PositionID]
		shortfall := req.Quantity - assigned
		if shortfall < 0 {
			shortfall = 0
		}
		if shortfall > 0 {
			result.IsFullySatisfied = false
		}
		result.PerPosition = append(result.PerPosition, PositionFulfillment{
			PositionID: req.PositionID,
			Required:   req.Quantity,
			Assigned:   assigned,
			Shortfall:  shortfall,
		})
	}

	return result
}
