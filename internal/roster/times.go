package roster

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"

	minutesPerDay = 24 * 60
)

// ParseClock 把 "15:04:05" 格式的时刻转换成当天的分钟数（秒会被舍弃）。
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("时刻 %q 格式错误: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Overlaps 判断两个时间段是否重叠。结束时刻不晚于开始时刻的时间段视为跨夜，
// 归一化为结束时刻加 24 小时；由于两个时间段挂在同一个日期上，跨夜段会伸入
// 次日凌晨，所以还要把对方平移正负一天再比较一次，否则 22:00~06:00 和
// 05:00~09:00 这类重叠会被漏掉。
func Overlaps(aStart, aEnd, bStart, bEnd string) (bool, error) {
	as, err := ParseClock(aStart)
	if err != nil {
		return false, err
	}
	ae, err := ParseClock(aEnd)
	if err != nil {
		return false, err
	}
	bs, err := ParseClock(bStart)
	if err != nil {
		return false, err
	}
	be, err := ParseClock(bEnd)
	if err != nil {
		return false, err
	}

	if ae <= as {
		ae += minutesPerDay
	}
	if be <= bs {
		be += minutesPerDay
	}

	for _, offset := range []int{-minutesPerDay, 0, minutesPerDay} {
		if as < be+offset && bs+offset < ae {
			return true, nil
		}
	}
	return false, nil
}

// Weekday 返回日期是星期几，1~7，周一为 1。
func Weekday(date string) (int32, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("日期 %q 格式错误: %w", date, err)
	}
	return int32((int(d.Weekday())+6)%7) + 1, nil
}

// WeekStart 返回日期所在那一周的周一。
func WeekStart(date string) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("日期 %q 格式错误: %w", date, err)
	}
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset).Format(DateLayout), nil
}

// DatesBetween 返回闭区间 [start, end] 内的所有日期。
func DatesBetween(start, end string) ([]string, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("日期 %q 格式错误: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("日期 %q 格式错误: %w", end, err)
	}
	if e.Before(s) {
		return nil, fmt.Errorf("结束日期 %s 不能早于开始日期 %s", end, start)
	}

	dates := make([]string, 0, int(e.Sub(s).Hours()/24)+1)
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates, nil
}

// AddDays 返回日期加上 n 天之后的日期。
func AddDays(date string, n int) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("日期 %q 格式错误: %w", date, err)
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}

// DaysBetween 返回从 from 到 to 相差的天数（to 在 from 之前时为负数）。
func DaysBetween(from, to string) (int, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return 0, fmt.Errorf("日期 %q 格式错误: %w", from, err)
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return 0, fmt.Errorf("日期 %q 格式错误: %w", to, err)
	}
	return int(t.Sub(f).Hours() / 24), nil
}
