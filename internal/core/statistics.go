package core

import (
	"math"
	"time"

	"github.com/valter-silva-au/courrier/pkg/models"
)

// ActivityDays is the number of daily buckets in Statistics.RecentActivity.
const ActivityDays = 7

var frenchWeekdays = [...]string{"Dim", "Lun", "Mar", "Mer", "Jeu", "Ven", "Sam"}

// ComputeStatistics aggregates letters. It is recomputed on every call; now
// anchors the activity window and the month comparison.
//
// RecentActivity holds one bucket per calendar day, oldest first, ending with
// the day of now. MonthlyGrowth is the percentage change between letters
// created in the month of now and in the previous month, 0 when the previous
// month has none.
func ComputeStatistics(letters []models.Letter, now time.Time) models.Statistics {
	stats := models.Statistics{
		TotalLetters:   len(letters),
		LettersByType:  make(map[models.LetterType]int),
		RecentActivity: make([]models.DayActivity, ActivityDays),
	}

	loc := now.Location()
	today := startOfDay(now)
	first := today.AddDate(0, 0, -(ActivityDays - 1))
	for i := range stats.RecentActivity {
		day := first.AddDate(0, 0, i)
		stats.RecentActivity[i].Day = frenchWeekdays[day.Weekday()]
	}

	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	prevMonth := thisMonth.AddDate(0, -1, 0)
	var curCount, prevCount int

	for _, l := range letters {
		stats.LettersByType[l.Type]++

		created := l.CreatedAt.In(loc)
		if d := startOfDay(created); !d.Before(first) && !d.After(today) {
			idx := daysBetween(first, d)
			stats.RecentActivity[idx].Count++
		}
		switch {
		case !created.Before(thisMonth) && created.Before(thisMonth.AddDate(0, 1, 0)):
			curCount++
		case !created.Before(prevMonth) && created.Before(thisMonth):
			prevCount++
		}
	}

	if prevCount > 0 {
		growth := float64(curCount-prevCount) / float64(prevCount) * 100
		stats.MonthlyGrowth = math.Round(growth*10) / 10
	}
	return stats
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, both at midnight. Rounding
// absorbs DST shifts.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
