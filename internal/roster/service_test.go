package roster_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juhe-dining/roster/backend/internal/domain"
	"github.com/juhe-dining/roster/backend/internal/roster"
)

func newTestService() (*roster.Service, *memStore) {
	store := newMemStore()
	return roster.NewService(store), store
}

// dayShift 创建一个临时班次，让测试不依赖模板。
func dayShift(t *testing.T, svc *roster.Service, branchID int64, date, start, end string) *domain.ShiftOccurrence {
	t.Helper()
	occ, err := svc.CreateOccurrence(&roster.CreateOccurrenceInput{
		BranchID:     branchID,
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		Requirements: []domain.PositionRequirement{{PositionID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	return occ
}

func activeTemplate(store *memStore, branchID int64, days []int32) *domain.ShiftTemplate {
	return store.addTemplate(&domain.ShiftTemplate{
		BranchID:       branchID,
		Name:           "早班",
		StartTime:      "07:00:00",
		EndTime:        "15:00:00",
		ApplicableDays: days,
		Requirements: []domain.PositionRequirement{
			{PositionID: 1, Quantity: 2},
			{PositionID: 2, Quantity: 1},
		},
		Status: domain.TemplateStatusActive,
	})
}

func TestCreateOccurrenceFromTemplate(t *testing.T) {
	svc, store := newTestService()
	template := activeTemplate(store, 1, []int32{1, 2, 3, 4, 5})

	occ, err := svc.CreateOccurrence(&roster.CreateOccurrenceInput{
		TemplateID: &template.ID,
		BranchID:   1,
		Date:       "2025-03-03", // 周一
	})
	require.NoError(t, err)

	assert.Equal(t, template.StartTime, occ.StartTime)
	assert.Equal(t, template.EndTime, occ.EndTime)
	assert.Equal(t, template.Requirements, occ.Requirements)

	// 班次保存的是创建当时的快照，之后修改模板不影响它
	template.Requirements[0].Quantity = 99
	stored, err := store.GetShiftOccurrence(occ.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stored.Requirements[0].Quantity)
}

func TestCreateOccurrenceDuplicate(t *testing.T) {
	svc, store := newTestService()
	template := activeTemplate(store, 1, []int32{1})

	_, err := svc.CreateOccurrence(&roster.CreateOccurrenceInput{
		TemplateID: &template.ID,
		BranchID:   1,
		Date:       "2025-03-03",
	})
	require.NoError(t, err)

	_, err = svc.CreateOccurrence(&roster.CreateOccurrenceInput{
		TemplateID: &template.ID,
		BranchID:   1,
		Date:       "2025-03-03",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateOccurrence)
}

func TestCreateOccurrenceTemplateChecks(t *testing.T) {
	svc, store := newTestService()

	inactive := store.addTemplate(&domain.ShiftTemplate{
		BranchID:       1,
		Name:           "停用班次",
		StartTime:      "07:00:00",
		EndTime:        "15:00:00",
		ApplicableDays: []int32{1},
		Requirements:   []domain.PositionRequirement{{PositionID: 1, Quantity: 1}},
		Status:         domain.TemplateStatusInactive,
	})
	_, err := svc.CreateOccurrence(&roster.CreateOccurrenceInput{
		TemplateID: &inactive.ID,
		BranchID:   1,
		Date:       "2025-03-03",
	})
	assert.ErrorIs(t, err, domain.ErrTemplateInactive)

	mondayOnly := activeTemplate(store, 1, []int32{1})
	_, err = svc.CreateOccurrence(&roster.CreateOccurrenceInput{
		TemplateID: &mondayOnly.ID,
		BranchID:   1,
		Date:       "2025-03-04", // 周二
	})
	assert.ErrorIs(t, err, domain.ErrDayNotApplicable)

	// 不能拿别的门店的模板给自己的门店生成班次
	_, err = svc.CreateOccurrence(&roster.CreateOccurrenceInput{
		TemplateID: &mondayOnly.ID,
		BranchID:   2,
		Date:       "2025-03-03",
	})
	assert.ErrorIs(t, err, domain.ErrTemplateWrongBranch)
}

func TestCreateOccurrenceAdHoc(t *testing.T) {
	svc, _ := newTestService()

	occ, err := svc.CreateOccurrence(&roster.CreateOccurrenceInput{
		BranchID:     1,
		Date:         "2025-03-03",
		StartTime:    "18:00:00",
		EndTime:      "21:00:00",
		Requirements: []domain.PositionRequirement{{PositionID: 1, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Nil(t, occ.TemplateID)

	_, err = svc.CreateOccurrence(&roster.CreateOccurrenceInput{
		BranchID:  1,
		Date:      "2025-03-03",
		StartTime: "18点",
		EndTime:   "21:00:00",
	})
	assert.Error(t, err)
}

func TestAssign(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	occ := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "17:00:00")

	assignment, err := svc.Assign(occ.ID, 101, "顶班", false)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusDraft, assignment.Status)
	assert.Equal(t, "顶班", assignment.Note)

	// 同一员工不能在同一班次上出现两次
	_, err = svc.Assign(occ.ID, 101, "", false)
	assert.ErrorIs(t, err, domain.ErrDuplicateAssignment)

	_, err = svc.Assign(9999, 101, "", false)
	assert.ErrorIs(t, err, domain.ErrOccurrenceNotFound)
}

func TestAssignOverlapMarksBothConflicted(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	first := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "17:00:00")
	second := dayShift(t, svc, 1, "2025-03-03", "16:00:00", "20:00:00")

	a1, err := svc.Assign(first.ID, 101, "", false)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusDraft, a1.Status)

	// 非严格模式容忍冲突，但重叠的两条都要被标记出来
	a2, err := svc.Assign(second.ID, 101, "", false)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusConflicted, a2.Status)

	refreshed, err := svc.GetAssignment(a1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusConflicted, refreshed.Status)
}

func TestAssignStrictRejectsConflict(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	first := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "17:00:00")
	second := dayShift(t, svc, 1, "2025-03-03", "16:00:00", "20:00:00")

	_, err := svc.Assign(first.ID, 101, "", false)
	require.NoError(t, err)

	_, err = svc.Assign(second.ID, 101, "", true)
	assert.ErrorIs(t, err, domain.ErrConflictDetected)

	// 严格模式拒绝后不应该留下任何新记录
	views, err := svc.ListGroupedAssignments(1, "2025-03-03", "2025-03-03")
	require.NoError(t, err)
	assert.Len(t, views[1][101]["2025-03-03"], 1)
}

func TestAssignOvernightConflict(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	night := dayShift(t, svc, 1, "2025-03-03", "22:00:00", "06:00:00")
	morning := dayShift(t, svc, 1, "2025-03-03", "05:00:00", "09:00:00")

	_, err := svc.Assign(night.ID, 101, "", false)
	require.NoError(t, err)

	// 夜班伸入次日凌晨，和同一天挂着的凌晨班冲突
	_, err = svc.Assign(morning.ID, 101, "", true)
	assert.ErrorIs(t, err, domain.ErrConflictDetected)
}

func TestAssignAdjacentShiftsNoConflict(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	morning := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "12:00:00")
	afternoon := dayShift(t, svc, 1, "2025-03-03", "12:00:00", "15:00:00")

	_, err := svc.Assign(morning.ID, 101, "", false)
	require.NoError(t, err)

	a2, err := svc.Assign(afternoon.ID, 101, "", true)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusDraft, a2.Status)
}

func TestDeleteOccurrenceCascades(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	store.addUser(102, 1)
	occ := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "17:00:00")

	_, err := svc.Assign(occ.ID, 101, "", false)
	require.NoError(t, err)
	_, err = svc.Assign(occ.ID, 102, "", false)
	require.NoError(t, err)

	removed, err := svc.DeleteOccurrence(occ.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = svc.EvaluateOccurrence(occ.ID)
	assert.ErrorIs(t, err, domain.ErrOccurrenceNotFound)
}

func TestDeleteAssignment(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	occ := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "17:00:00")

	a, err := svc.Assign(occ.ID, 101, "", false)
	require.NoError(t, err)

	// DRAFT 可以直接删除
	require.NoError(t, svc.DeleteAssignment(a.ID, false))

	a, err = svc.Assign(occ.ID, 101, "", false)
	require.NoError(t, err)
	_, err = svc.UpdateAssignmentStatus(a.ID, domain.AssignmentStatusPublished)
	require.NoError(t, err)

	// 已发布的排班不允许直接删除，必须先撤回
	err = svc.DeleteAssignment(a.ID, false)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	err = svc.DeleteAssignment(a.ID, true)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.UpdateAssignmentStatus(a.ID, domain.AssignmentStatusRequestChange)
	require.NoError(t, err)

	// REQUEST_CHANGE 需要店长确认才能删除
	err = svc.DeleteAssignment(a.ID, false)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.NoError(t, svc.DeleteAssignment(a.ID, true))
}

func TestUpdateAssignmentStatusTransitions(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	occ := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "17:00:00")

	a, err := svc.Assign(occ.ID, 101, "", false)
	require.NoError(t, err)

	// DRAFT -> PENDING -> PUBLISHED -> DRAFT（撤回发布）
	updated, err := svc.UpdateAssignmentStatus(a.ID, domain.AssignmentStatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusPending, updated.Status)

	// PENDING 不能再标记为 PENDING
	_, err = svc.UpdateAssignmentStatus(a.ID, domain.AssignmentStatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	updated, err = svc.UpdateAssignmentStatus(a.ID, domain.AssignmentStatusPublished)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusPublished, updated.Status)

	// PUBLISHED 不能再次发布
	_, err = svc.UpdateAssignmentStatus(a.ID, domain.AssignmentStatusPublished)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	updated, err = svc.UpdateAssignmentStatus(a.ID, domain.AssignmentStatusDraft)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusDraft, updated.Status)

	// 冲突和请假状态只能由系统流转
	_, err = svc.UpdateAssignmentStatus(a.ID, domain.AssignmentStatusConflicted)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = svc.UpdateAssignmentStatus(a.ID, domain.AssignmentStatusLeaveValid)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = svc.UpdateAssignmentStatus(a.ID, "瞎编的状态")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.UpdateAssignmentStatus(9999, domain.AssignmentStatusDraft)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdateAssignmentStatusPublishChecksConflict(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	first := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "17:00:00")
	second := dayShift(t, svc, 1, "2025-03-03", "16:00:00", "20:00:00")

	a1, err := svc.Assign(first.ID, 101, "", false)
	require.NoError(t, err)
	_, err = svc.Assign(second.ID, 101, "", false)
	require.NoError(t, err)

	// 两条都被标记成 CONFLICTED，店长把第一条改回 DRAFT 后尝试发布，
	// 另一条冲突的记录还在，发布必须被拒绝
	_, err = svc.UpdateAssignmentStatus(a1.ID, domain.AssignmentStatusDraft)
	require.NoError(t, err)
	_, err = svc.UpdateAssignmentStatus(a1.ID, domain.AssignmentStatusPublished)
	assert.ErrorIs(t, err, domain.ErrConflictDetected)
}

func TestConflictPreview(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	occ := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "17:00:00")

	a, err := svc.Assign(occ.ID, 101, "", false)
	require.NoError(t, err)

	conflict, err := svc.ConflictPreview(101, "2025-03-03", "16:00:00", "20:00:00", 0)
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = svc.ConflictPreview(101, "2025-03-04", "16:00:00", "20:00:00", 0)
	require.NoError(t, err)
	assert.False(t, conflict)

	// 排除自身之后不再和自己冲突
	conflict, err = svc.ConflictPreview(101, "2025-03-03", "09:00:00", "17:00:00", a.ID)
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestEvaluateOccurrenceService(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	store.addUser(102, 2)
	occ, err := svc.CreateOccurrence(&roster.CreateOccurrenceInput{
		BranchID:  1,
		Date:      "2025-03-03",
		StartTime: "09:00:00",
		EndTime:   "17:00:00",
		Requirements: []domain.PositionRequirement{
			{PositionID: 1, Quantity: 2},
			{PositionID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = svc.Assign(occ.ID, 101, "", false)
	require.NoError(t, err)
	_, err = svc.Assign(occ.ID, 102, "", false)
	require.NoError(t, err)

	result, err := svc.EvaluateOccurrence(occ.ID)
	require.NoError(t, err)
	assert.False(t, result.IsFullySatisfied)
	assert.Equal(t, int32(1), result.PerPosition[0].Shortfall)
	assert.Equal(t, int32(0), result.PerPosition[1].Shortfall)
}

func TestApplyLeaveApproved(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)

	occMon := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "17:00:00")
	occTue := dayShift(t, svc, 1, "2025-03-04", "09:00:00", "17:00:00")
	occFri := dayShift(t, svc, 1, "2025-03-07", "09:00:00", "17:00:00")

	for _, occ := range []*domain.ShiftOccurrence{occMon, occTue, occFri} {
		_, err := svc.Assign(occ.ID, 101, "", false)
		require.NoError(t, err)
	}

	// 请假区间只覆盖周一和周二
	affected, err := svc.ApplyLeaveApproved(&domain.LeaveApprovedEvent{
		UserID:            101,
		StartDate:         "2025-03-03",
		EndDate:           "2025-03-04",
		BalanceSufficient: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, affected)

	views, err := svc.ListGroupedAssignments(1, "2025-03-03", "2025-03-07")
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusLeaveValid, views[1][101]["2025-03-03"][0].Status)
	assert.Equal(t, domain.AssignmentStatusLeaveValid, views[1][101]["2025-03-04"][0].Status)
	assert.Equal(t, domain.AssignmentStatusDraft, views[1][101]["2025-03-07"][0].Status)

	// 余额充足的请假仍然计入岗位人数
	result, err := svc.EvaluateOccurrence(occMon.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), result.PerPosition[0].Assigned)
}

func TestApplyLeaveApprovedExceeded(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	occ := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "17:00:00")

	_, err := svc.Assign(occ.ID, 101, "", false)
	require.NoError(t, err)

	affected, err := svc.ApplyLeaveApproved(&domain.LeaveApprovedEvent{
		UserID:            101,
		StartDate:         "2025-03-03",
		EndDate:           "2025-03-03",
		BalanceSufficient: false,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	// 超额请假不再计入岗位人数
	result, err := svc.EvaluateOccurrence(occ.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), result.PerPosition[0].Assigned)
	assert.Equal(t, int32(1), result.PerPosition[0].Shortfall)
}

func TestApplyLeaveCancelled(t *testing.T) {
	svc, store := newTestService()
	store.addUser(101, 1)
	occ := dayShift(t, svc, 1, "2025-03-03", "09:00:00", "17:00:00")

	a, err := svc.Assign(occ.ID, 101, "", false)
	require.NoError(t, err)

	_, err = svc.ApplyLeaveApproved(&domain.LeaveApprovedEvent{
		UserID:            101,
		StartDate:         "2025-03-03",
		EndDate:           "2025-03-03",
		BalanceSufficient: true,
	})
	require.NoError(t, err)

	affected, err := svc.ApplyLeaveCancelled(&domain.LeaveCancelledEvent{
		UserID:    101,
		StartDate: "2025-03-03",
		EndDate:   "2025-03-03",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	// 取消请假后回到 DRAFT，等店长重新发布
	refreshed, err := svc.GetAssignment(a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusDraft, refreshed.Status)
}
