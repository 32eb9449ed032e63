package seed

import (
	"log/slog"

	"github.com/juhe-dining/roster/backend/internal/domain"
	"github.com/juhe-dining/roster/backend/internal/repository"
	"github.com/juhe-dining/roster/backend/internal/utils"
)

var demoPositions = []*domain.Position{
	{Name: "服务员", Color: "#f59e0b"},
	{Name: "厨师", Color: "#ef4444"},
	{Name: "收银员", Color: "#3b82f6"},
	{Name: "传菜员", Color: "#10b981"},
	{Name: "洗碗工", Color: "#8b5cf6"},
}

var demoBranches = []*domain.Branch{
	{Name: "中山路店", Address: "广州市越秀区中山五路 88 号"},
	{Name: "珠江新城店", Address: "广州市天河区珠江东路 16 号"},
}

// 每个门店固定生成这四个班次模板，夜班是跨夜的，
// 用来验证跨夜排班的冲突检测。
var demoShifts = []struct {
	name      string
	startTime string
	endTime   string
	days      []int32
	// 按 demoPositions 的下标给出每个岗位的需求人数，0 表示该班次不需要这个岗位
	quantities []int32
}{
	{"早班", "07:00:00", "15:00:00", []int32{1, 2, 3, 4, 5, 6, 7}, []int32{2, 2, 1, 1, 1}},
	{"午市班", "10:00:00", "14:30:00", []int32{1, 2, 3, 4, 5}, []int32{3, 2, 1, 2, 0}},
	{"晚市班", "16:30:00", "22:00:00", []int32{1, 2, 3, 4, 5, 6, 7}, []int32{3, 3, 1, 2, 1}},
	{"夜班", "22:00:00", "06:00:00", []int32{5, 6, 7}, []int32{1, 1, 1, 0, 0}},
}

// SeedDemoData 生成一套完整的演示数据：岗位、门店、每店的班次模板，
// 以及每个岗位若干店员。所有店员共用同一个初始密码，只用于开发环境。
func SeedDemoData(r *repository.Repository, staffPerPosition int, password string, emailDomain string) {
	positions := make([]*domain.Position, 0, len(demoPositions))
	for _, p := range demoPositions {
		position := &domain.Position{Name: p.Name, Color: p.Color}
		if err := r.CreatePosition(position); err != nil {
			slog.Error("插入岗位失败", "name", p.Name, "error", err)
			return
		}
		positions = append(positions, position)
	}

	for _, b := range demoBranches {
		branch := &domain.Branch{Name: b.Name, Address: b.Address}
		if err := r.CreateBranch(branch); err != nil {
			slog.Error("插入门店失败", "name", b.Name, "error", err)
			return
		}

		for _, shift := range demoShifts {
			st := &domain.ShiftTemplate{
				BranchID:       branch.ID,
				Name:           shift.name,
				StartTime:      shift.startTime,
				EndTime:        shift.endTime,
				ApplicableDays: shift.days,
				Status:         domain.TemplateStatusActive,
			}
			for i, quantity := range shift.quantities {
				if quantity == 0 {
					continue
				}
				st.Requirements = append(st.Requirements, domain.PositionRequirement{
					PositionID: positions[i].ID,
					Quantity:   quantity,
				})
			}

			if err := r.CreateShiftTemplate(st); err != nil {
				slog.Error("插入班次模板失败", "branch", branch.Name, "shift", shift.name, "error", err)
				return
			}
		}

		staffCount := 0
		for _, position := range positions {
			for i := 0; i < staffPerPosition; i++ {
				user, err := utils.GenerateRandomStaff(password, emailDomain, branch.ID, position.ID)
				if err != nil {
					slog.Error("生成店员失败", "error", err)
					continue
				}

				if err := r.CreateUser(user); err != nil {
					// 随机用户名撞车直接跳过，不影响整体
					slog.Error("插入店员失败", "username", user.Username, "error", err)
					continue
				}

				staffCount++
			}
		}

		slog.Info("门店演示数据生成完成", "branch", branch.Name, "staff", staffCount)
	}
}
