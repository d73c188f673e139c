// Package reservations manages customer bookings of tour packages.
package reservations

import "time"

// UserRef identifies the customer holding a reservation.
type UserRef struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// PackageRef identifies the booked package.
type PackageRef struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// Reservation is a booking of a tour package by a user.
type Reservation struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"usuario_id"`
	PackageID     int64     `db:"package_id" json:"paquete_id"`
	StartsAt      time.Time `db:"starts_at" json:"fecha_inicio"`
	EndsAt        time.Time `db:"ends_at" json:"fecha_fin"`
	State         string    `db:"state" json:"estado"`
	PartySize     int       `db:"party_size" json:"numero_personas"`
	TotalPrice    float64   `db:"total_price" json:"precio_total"`
	PaymentMethod string    `db:"payment_method" json:"metodo_pago"`
	Comments      string    `db:"comments" json:"comentarios"`
	CreatedAt     time.Time `db:"created_at" json:"creado_en"`

	UserEmail   string `db:"user_email" json:"-"`
	PackageName string `db:"package_name" json:"-"`

	User    *UserRef    `db:"-" json:"usuario"`
	Package *PackageRef `db:"-" json:"paquete_turistico"`
}

func (r *Reservation) resolve() {
	r.User = &UserRef{ID: r.UserID, Email: r.UserEmail}
	r.Package = &PackageRef{ID: r.PackageID, Name: r.PackageName}
}

// Input carries the fields of a new reservation. Every field is mandatory.
type Input struct {
	UserID        int64
	PackageID     int64
	StartsAt      time.Time
	EndsAt        time.Time
	State         string
	PartySize     int
	TotalPrice    float64
	PaymentMethod string
	Comments      string
}

// Update carries a partial update; nil fields are left unchanged.
type Update struct {
	UserID        *int64
	PackageID     *int64
	StartsAt      *time.Time
	EndsAt        *time.Time
	State         *string
	PartySize     *int
	TotalPrice    *float64
	PaymentMethod *string
	Comments      *string
}
