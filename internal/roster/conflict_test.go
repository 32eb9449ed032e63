package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juhe-dining/roster/backend/internal/domain"
	"github.com/juhe-dining/roster/backend/internal/roster"
)

func view(id int64, start, end string, status domain.AssignmentStatus) *domain.AssignmentView {
	v := &domain.AssignmentView{
		StartTime: start,
		EndTime:   end,
	}
	v.ID = id
	v.Status = status
	return v
}

func TestHasConflict(t *testing.T) {
	existing := []*domain.AssignmentView{
		view(1, "09:00:00", "17:00:00", domain.AssignmentStatusPublished),
	}

	conflict, err := roster.HasConflict("16:00:00", "20:00:00", existing, 0)
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = roster.HasConflict("17:00:00", "20:00:00", existing, 0)
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestHasConflictExcludesSelf(t *testing.T) {
	existing := []*domain.AssignmentView{
		view(1, "09:00:00", "17:00:00", domain.AssignmentStatusDraft),
	}

	// 把一条排班和它自己比较时必须排除自身
	conflict, err := roster.HasConflict("09:00:00", "17:00:00", existing, 1)
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestHasConflictStatusRelevance(t *testing.T) {
	tests := []struct {
		status   domain.AssignmentStatus
		relevant bool
	}{
		{domain.AssignmentStatusDraft, true},
		{domain.AssignmentStatusPending, true},
		{domain.AssignmentStatusPublished, true},
		{domain.AssignmentStatusLeaveValid, true},
		// 已冲突的排班仍然参与比较，让重叠的每一条都能被标记
		{domain.AssignmentStatusConflicted, true},
		// 调班请求和超额请假不占用时间
		{domain.AssignmentStatusRequestChange, false},
		{domain.AssignmentStatusLeaveExceeded, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			existing := []*domain.AssignmentView{
				view(1, "09:00:00", "17:00:00", tt.status),
			}
			conflict, err := roster.HasConflict("10:00:00", "12:00:00", existing, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.relevant, conflict)
		})
	}
}

func TestHasConflictOvernight(t *testing.T) {
	existing := []*domain.AssignmentView{
		view(1, "22:00:00", "06:00:00", domain.AssignmentStatusPublished),
	}

	conflict, err := roster.HasConflict("05:00:00", "09:00:00", existing, 0)
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = roster.HasConflict("09:00:00", "17:00:00", existing, 0)
	require.NoError(t, err)
	assert.False(t, conflict)
}
