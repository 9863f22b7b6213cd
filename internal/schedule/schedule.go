// Package schedule проверяет блоки недельного расписания.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/thereayou/flux/internal/apperr"
)

const clockLayout = "15:04"

// Block отрезок времени в один день недели (0 воскресенье)
type Block struct {
	DayOfWeek int
	StartTime string
	EndTime   string
	Type      string
}

var dayNames = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

// DayName возвращает название дня по-испански
func DayName(day int) string {
	if day < 0 || day >= len(dayNames) {
		return ""
	}
	return dayNames[day]
}

// ParseClock разбирает "HH:MM" в минуты от начала суток
func ParseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock минуты от начала суток в "HH:MM"
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Canonical приводит время блоков к виду "HH:MM"; блоки должны пройти Validate
func Canonical(blocks []Block) {
	for i := range blocks {
		if m, err := ParseClock(blocks[i].StartTime); err == nil {
			blocks[i].StartTime = FormatClock(m)
		}
		if m, err := ParseClock(blocks[i].EndTime); err == nil {
			blocks[i].EndTime = FormatClock(m)
		}
	}
}

type span struct {
	index      int
	start, end int
}

// Validate проверяет каждый блок и пересечения внутри одного дня.
// Касание концами (10:00-11:00 и 11:00-12:00) пересечением не считается.
func Validate(blocks []Block) error {
	byDay := map[int][]span{}

	for i, b := range blocks {
		if b.DayOfWeek < 0 || b.DayOfWeek > 6 {
			return apperr.Validation(fmt.Sprintf("block %d: day of week must be between 0 and 6", i+1))
		}
		if strings.TrimSpace(b.StartTime) == "" || strings.TrimSpace(b.EndTime) == "" {
			return apperr.Validation(fmt.Sprintf("block %d: start and end time are required", i+1))
		}
		start, err := ParseClock(b.StartTime)
		if err != nil {
			return apperr.Validation(fmt.Sprintf("block %d: invalid start time %q", i+1, b.StartTime))
		}
		end, err := ParseClock(b.EndTime)
		if err != nil {
			return apperr.Validation(fmt.Sprintf("block %d: invalid end time %q", i+1, b.EndTime))
		}
		if start >= end {
			return apperr.Validation(fmt.Sprintf("block %d: start time must be before end time", i+1))
		}
		byDay[b.DayOfWeek] = append(byDay[b.DayOfWeek], span{index: i, start: start, end: end})
	}

	for day, spans := range byDay {
		sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
		for i := 1; i < len(spans); i++ {
			if spans[i].start < spans[i-1].end {
				return apperr.Validation(fmt.Sprintf("blocks %d and %d overlap on %s",
					spans[i-1].index+1, spans[i].index+1, DayName(day)))
			}
		}
	}
	return nil
}

// Sort упорядочивает блоки по дню и времени начала
func Sort(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].DayOfWeek != blocks[j].DayOfWeek {
			return blocks[i].DayOfWeek < blocks[j].DayOfWeek
		}
		return blocks[i].StartTime < blocks[j].StartTime
	})
}
