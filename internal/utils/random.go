package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomStaff 生成某家门店某个岗位的店员账号。
func GenerateRandomStaff(password string, emailDomainName string, branchID int64, positionID int64) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleStaff,
		PositionID:   &positionID,
		BranchID:     &branchID,
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

// 用 Fisher-Yates 洗牌算法来生成随机的适用天数
func GenerateRandomApplicableDays() []int32 {
	days := []int32{1, 2, 3, 4, 5, 6, 7}

	for i := len(days) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		days[i], days[j] = days[j], days[i]
	}

	n := rand.Intn(len(days)) + 1

	return days[:n]
}

var branchNames = []string{
	"中山路店", "天河城店", "珠江新城店", "北京路店", "江南西店",
	"东风广场店", "万达广场店", "太古汇店", "白云新城店", "番禺广场店",
}

func GenerateRandomBranch() *domain.Branch {
	name := branchNames[rand.Intn(len(branchNames))]
	return &domain.Branch{
		Name:    name,
		Address: fmt.Sprintf("广州市某区某路 %d 号", rand.Intn(500)+1),
	}
}

// GenerateRandomShiftTemplate 从常见的餐饮班次里随机挑一个生成模板，
// 其中夜班是跨夜的（22:00 ~ 06:00），保证测试数据覆盖跨夜场景。
func GenerateRandomShiftTemplate(branchID int64, positionIDs []int64) *domain.ShiftTemplate {
	shifts := []struct {
		name      string
		startTime string
		endTime   string
	}{
		{"早班", "07:00:00", "15:00:00"},
		{"午市班", "10:00:00", "14:30:00"},
		{"晚市班", "16:30:00", "22:00:00"},
		{"夜班", "22:00:00", "06:00:00"},
	}
	shift := shifts[rand.Intn(len(shifts))]

	st := &domain.ShiftTemplate{
		BranchID:       branchID,
		Name:           shift.name,
		StartTime:      shift.startTime,
		EndTime:        shift.endTime,
		ApplicableDays: GenerateRandomApplicableDays(),
		Status:         domain.TemplateStatusActive,
	}

	for _, positionID := range positionIDs {
		if rand.Intn(2) == 0 {
			continue
		}
		st.Requirements = append(st.Requirements, domain.PositionRequirement{
			PositionID: positionID,
			Quantity:   int32(rand.Intn(3) + 1),
		})
	}
	if len(st.Requirements) == 0 {
		st.Requirements = append(st.Requirements, domain.PositionRequirement{
			PositionID: positionIDs[rand.Intn(len(positionIDs))],
			Quantity:   1,
		})
	}

	return st
}
