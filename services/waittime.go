package services

import (
	"fmt"
	"math"

	"waitline/models"
)

// WaitUnknown is the sentinel estimate returned when no staff is available.
// Callers must render it as "N/A", never as zero minutes.
const WaitUnknown = -1

// EstimateWait computes the estimated wait in minutes for the target entry.
//
// The function is pure: both the single-entry wait endpoint and the kiosk board
// go through it, so the two can never drift apart for the same inputs. An entry
// counts as "ahead" when it is waiting or called with a lower position; checked
// in entries are already consuming a staff slot and are excluded.
func EstimateWait(target *models.QueueEntry, active []*models.QueueEntry, snap models.StaffAvailabilitySnapshot) int {
	if snap.AvailableStaff <= 0 {
		return WaitUnknown
	}

	ahead := 0
	for _, e := range active {
		if e.ID == target.ID {
			continue
		}
		if (e.Status == models.StatusWaiting || e.Status == models.StatusCalled) && e.Position < target.Position {
			ahead++
		}
	}
	if ahead == 0 {
		return 0
	}

	minutes := float64(ahead) / float64(snap.AvailableStaff) * snap.AverageServiceMinutes
	return int(math.Ceil(minutes))
}

// FormatWait renders an estimate for customer-facing displays.
func FormatWait(minutes int) string {
	switch {
	case minutes < 0:
		return "N/A"
	case minutes < 60:
		return fmt.Sprintf("%d min", minutes)
	default:
		h, m := minutes/60, minutes%60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
