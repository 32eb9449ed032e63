package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

func validTemplate() *domain.ShiftTemplate {
	return &domain.ShiftTemplate{
		Name:           "早班",
		StartTime:      "07:00:00",
		EndTime:        "15:00:00",
		ApplicableDays: []int32{1, 2, 3, 4, 5},
		Requirements: []domain.PositionRequirement{
			{PositionID: 1, Quantity: 2},
		},
	}
}

func TestValidateShiftTemplate(t *testing.T) {
	assert.NoError(t, ValidateShiftTemplate(validTemplate()))

	// 跨夜班次是合法的
	overnight := validTemplate()
	overnight.StartTime = "22:00:00"
	overnight.EndTime = "06:00:00"
	assert.NoError(t, ValidateShiftTemplate(overnight))

	tests := []struct {
		name   string
		mutate func(st *domain.ShiftTemplate)
	}{
		{"开始时间格式错误", func(st *domain.ShiftTemplate) { st.StartTime = "7:00" }},
		{"结束时间格式错误", func(st *domain.ShiftTemplate) { st.EndTime = "25:00:00" }},
		{"没有适用的星期", func(st *domain.ShiftTemplate) { st.ApplicableDays = nil }},
		{"星期超出范围", func(st *domain.ShiftTemplate) { st.ApplicableDays = []int32{0, 1} }},
		{"星期重复", func(st *domain.ShiftTemplate) { st.ApplicableDays = []int32{1, 1} }},
		{"没有岗位要求", func(st *domain.ShiftTemplate) { st.Requirements = nil }},
		{"需求人数为零", func(st *domain.ShiftTemplate) { st.Requirements[0].Quantity = 0 }},
		{"岗位重复", func(st *domain.ShiftTemplate) {
			st.Requirements = append(st.Requirements, domain.PositionRequirement{PositionID: 1, Quantity: 1})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := validTemplate()
			tt.mutate(st)
			assert.Error(t, ValidateShiftTemplate(st))
		})
	}
}
