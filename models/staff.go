package models

// StaffAvailabilitySnapshot is the per-call input for wait estimation: how many
// staff at the location are active and not on break, and the average service
// time in minutes to assume. It is derived per request and never persisted.
type StaffAvailabilitySnapshot struct {
	AvailableStaff        int     `json:"available_staff"`
	AverageServiceMinutes float64 `json:"average_service_minutes"`
}
