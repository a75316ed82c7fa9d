package types

import (
	"time"
)

type Category string

const (
	CategoryPackagedProducts Category = "packaged_products"
	CategoryPreparedMeals    Category = "prepared_meals"
)

type EntityStatus string

const (
	StatusOpen               EntityStatus = "open"
	StatusPartiallyFulfilled EntityStatus = "partially_fulfilled"
	StatusFulfilled          EntityStatus = "fulfilled"
)

type Donation struct {
	ID      string `db:"id" json:"id"`
	DonorID string `db:"donor_id" json:"donor_id"`

	Category Category  `db:"category" json:"category"`
	Products LineItems `db:"products" json:"products,omitempty"`
	Meals    LineItems `db:"meals" json:"meals,omitempty"`

	// NumberOfMeals is the running remaining total across meal lines,
	// OriginalMeals the total at creation. Zero for packaged_products.
	NumberOfMeals int `db:"number_of_meals" json:"number_of_meals,omitempty"`
	OriginalMeals int `db:"original_meals" json:"original_meals,omitempty"`

	Status  EntityStatus `db:"status" json:"status"`
	Version int          `db:"version" json:"version"`

	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Lines returns the supply lines for the donation's category.
func (d *Donation) Lines() LineItems {
	if d.Category == CategoryPreparedMeals {
		return d.Meals
	}
	return d.Products
}
