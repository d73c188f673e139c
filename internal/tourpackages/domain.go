// Package tourpackages manages the tour package catalogue and the services
// bundled with each package.
package tourpackages

import "time"

// Package is a tour package with its itineraries and bundled services.
type Package struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"nombre"`
	Description  *string   `db:"description" json:"descripcion"`
	TotalPrice   float64   `db:"total_price" json:"precio_total"`
	DurationDays int       `db:"duration_days" json:"duracion_dias"`
	StartsAt     time.Time `db:"starts_at" json:"fecha_inicio"`
	EndsAt       time.Time `db:"ends_at" json:"fecha_fin"`
	State        string    `db:"state" json:"estado"`
	CreatedAt    time.Time `db:"created_at" json:"creado_en"`

	Itineraries []Itinerary     `db:"-" json:"itinerarios"`
	Services    []LinkedService `db:"-" json:"servicios"`
}

// Itinerary is one day of a package.
type Itinerary struct {
	ID          int64      `db:"id" json:"id"`
	PackageID   int64      `db:"package_id" json:"paquete_id"`
	Day         int        `db:"day" json:"dia"`
	Description string     `db:"description" json:"descripcion"`
	Activities  []Activity `db:"-" json:"actividades"`
}

// Activity is an activity scheduled within an itinerary.
type Activity struct {
	ID          int64      `db:"id" json:"id"`
	ItineraryID int64      `db:"itinerary_id" json:"itinerario_id"`
	Name        string     `db:"name" json:"nombre"`
	Description *string    `db:"description" json:"descripcion"`
	StartsAt    *time.Time `db:"starts_at" json:"hora_inicio"`
	EndsAt      *time.Time `db:"ends_at" json:"hora_fin"`
}

// LinkedService is a travel service bundled with a package.
type LinkedService struct {
	ID          int64   `db:"id" json:"id"`
	PackageID   int64   `db:"package_id" json:"-"`
	Name        string  `db:"name" json:"nombre"`
	Kind        string  `db:"kind" json:"tipo"`
	Description *string `db:"description" json:"descripcion"`
	Price       float64 `db:"price" json:"precio"`
}

// Input carries the fields of a new package.
type Input struct {
	Name         string
	Description  *string
	TotalPrice   float64
	DurationDays int
	StartsAt     time.Time
	EndsAt       time.Time
	State        string
	ServiceIDs   []int64
}

// Update carries a partial update. Non-nil ServiceIDs replaces the bundled services.
type Update struct {
	Name         *string
	Description  *string
	TotalPrice   *float64
	DurationDays *int
	StartsAt     *time.Time
	EndsAt       *time.Time
	State        *string
	ServiceIDs   *[]int64
}
