package services

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// StaffService answers staff availability questions from the staff collection.
type StaffService struct {
	app core.App
}

func NewStaffService(app core.App) *StaffService {
	return &StaffService{app: app}
}

// ActiveAvailableCount counts staff at the location who are active and not on
// break. This is the denominator of every wait estimate.
func (s *StaffService) ActiveAvailableCount(ctx context.Context, locationID string) (int, error) {
	var count int
	err := s.app.DB().NewQuery(
		`SELECT COUNT(*) FROM staff
		 WHERE location = {:location} AND active = 1 AND on_break = 0`,
	).Bind(dbx.Params{"location": locationID}).WithContext(ctx).Row(&count)
	if err != nil {
		return 0, fmt.Errorf("count available staff for location %s: %w", locationID, err)
	}
	return count, nil
}
