// Package activities manages the activities scheduled inside itineraries.
package activities

import "time"

// ItineraryRef summarises the itinerary an activity belongs to.
type ItineraryRef struct {
	ID          int64  `json:"id"`
	Day         int    `json:"dia"`
	Description string `json:"descripcion"`
}

// Activity is a scheduled activity.
type Activity struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"nombre"`
	Description *string    `db:"description" json:"descripcion"`
	StartsAt    *time.Time `db:"starts_at" json:"hora_inicio"`
	EndsAt      *time.Time `db:"ends_at" json:"hora_fin"`
	ItineraryID *int64     `db:"itinerary_id" json:"itinerario_id"`

	ItineraryDay         *int    `db:"itinerary_day" json:"-"`
	ItineraryDescription *string `db:"itinerary_description" json:"-"`

	Itinerary *ItineraryRef `db:"-" json:"itinerario"`
}

// resolve fills Itinerary from the joined columns.
func (a *Activity) resolve() {
	if a.ItineraryID == nil || a.ItineraryDay == nil {
		return
	}
	ref := &ItineraryRef{ID: *a.ItineraryID, Day: *a.ItineraryDay}
	if a.ItineraryDescription != nil {
		ref.Description = *a.ItineraryDescription
	}
	a.Itinerary = ref
}

// Input carries the fields of a new activity.
type Input struct {
	Name        string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	ItineraryID int64
}

// Update carries a partial update.
type Update struct {
	Name        *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	ItineraryID *int64
}
