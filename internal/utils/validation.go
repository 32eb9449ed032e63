package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

// ValidateShiftTemplate 检查班次模板的时间格式、适用天和岗位要求。
// 结束时间允许早于或等于开始时间，这表示一个跨夜班次（如 22:00:00 ~ 06:00:00），
// 所以这里不检查 start < end。
func ValidateShiftTemplate(st *domain.ShiftTemplate) error {
	if _, err := time.Parse("15:04:05", st.StartTime); err != nil {
		return errors.New("班次开始时间格式错误")
	}
	if _, err := time.Parse("15:04:05", st.EndTime); err != nil {
		return errors.New("班次结束时间格式错误")
	}

	if len(st.ApplicableDays) == 0 {
		return errors.New("班次模板至少需要一个适用的星期")
	}

	seenDays := make(map[int32]bool)
	for _, day := range st.ApplicableDays {
		if day < 1 || day > 7 {
			return fmt.Errorf("适用的星期 %d 超出范围", day)
		}
		if seenDays[day] {
			return fmt.Errorf("适用的星期 %d 重复", day)
		}
		seenDays[day] = true
	}

	if len(st.Requirements) == 0 {
		return errors.New("班次模板至少需要一个岗位要求")
	}

	seenPositions := make(map[int64]bool)
	for _, req := range st.Requirements {
		if req.Quantity <= 0 {
			return errors.New("岗位需求人数必须大于 0")
		}
		if seenPositions[req.PositionID] {
			return errors.New("同一岗位在要求中重复出现")
		}
		seenPositions[req.PositionID] = true
	}

	return nil
}
