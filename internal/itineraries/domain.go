package itineraries

import "time"

// PackageRef identifies the tour package an itinerary belongs to.
type PackageRef struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// Itinerary is one day of a tour package.
type Itinerary struct {
	ID          int64   `db:"id" json:"id"`
	Day         int     `db:"day" json:"dia"`
	Description string  `db:"description" json:"descripcion"`
	PackageID   *int64  `db:"package_id" json:"paquete_id"`
	PackageName *string `db:"package_name" json:"-"`

	Package    *PackageRef `db:"-" json:"paquete"`
	Activities []Activity  `db:"-" json:"actividades"`
}

// Activity is an activity linked to an itinerary.
type Activity struct {
	ID          int64      `db:"id" json:"id"`
	ItineraryID int64      `db:"itinerary_id" json:"itinerario_id"`
	Name        string     `db:"name" json:"nombre"`
	Description *string    `db:"description" json:"descripcion"`
	StartsAt    *time.Time `db:"starts_at" json:"hora_inicio"`
	EndsAt      *time.Time `db:"ends_at" json:"hora_fin"`
}

// Input carries the fields of a new itinerary.
type Input struct {
	Day         int
	Description string
	PackageID   *int64
	ActivityIDs []int64
}

// Update carries a partial update. A non-empty ActivityIDs replaces the
// linked activities; an empty one leaves them untouched.
type Update struct {
	Day         *int
	Description *string
	PackageID   *int64
	ActivityIDs []int64
}
