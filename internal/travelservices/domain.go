// Package travelservices manages bookable services (transport, lodging,
// guides) and the tour packages that bundle them.
package travelservices

// PackageRef identifies a package bundling a service.
type PackageRef struct {
	ID        int64  `db:"id" json:"id"`
	ServiceID int64  `db:"service_id" json:"-"`
	Name      string `db:"name" json:"nombre"`
}

// Service is a bookable service.
type Service struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"nombre"`
	Kind        string  `db:"kind" json:"tipo"`
	Description *string `db:"description" json:"descripcion"`
	Price       float64 `db:"price" json:"precio"`

	Packages []PackageRef `db:"-" json:"paquetes"`
}

// Input carries the fields of a new service.
type Input struct {
	Name        string
	Kind        string
	Description *string
	Price       float64
	PackageIDs  []int64
}

// Update carries a partial update. Non-nil PackageIDs replaces the package links.
type Update struct {
	Name        *string
	Kind        *string
	Description *string
	Price       *float64
	PackageIDs  *[]int64
}
