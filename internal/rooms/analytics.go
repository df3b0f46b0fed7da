package rooms

import (
	"time"

	"pairgo/backend/internal/models"
)

// recordGap feeds one inter-message gap into the analytics window.
// Only the most recent 50 samples are kept; short gaps accumulate as
// active time, long ones count as silent periods.
func recordGap(a *models.RoomAnalytics, gap time.Duration) {
	a.ResponseTimes = append(a.ResponseTimes, gap)
	if len(a.ResponseTimes) > models.AnalyticsSampleLimit {
		a.ResponseTimes = a.ResponseTimes[len(a.ResponseTimes)-models.AnalyticsSampleLimit:]
	}

	if gap < silentGap {
		a.ActiveTime += gap
	} else {
		a.SilentPeriods++
	}
}

// engagementScore rates a closing room in [0,100]:
//
//	min(50, messages_per_minute*10) + 30*active_time/duration - min(20, 5*silent_periods)
func engagementScore(room *models.ChatRoom, endedAt time.Time) float64 {
	duration := endedAt.Sub(room.CreatedAt)
	if duration <= 0 {
		return 0
	}

	perMinute := float64(len(room.Messages)) / duration.Minutes()
	score := min(50.0, perMinute*10)
	score += 30 * room.Analytics.ActiveTime.Seconds() / duration.Seconds()
	score -= min(20.0, 5*float64(room.Analytics.SilentPeriods))

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
