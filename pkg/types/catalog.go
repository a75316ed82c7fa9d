package types

import "time"

// Product is a catalog entry for packaged goods. Read-only from the
// engine's perspective; the core only needs stable refs and quantities.
type Product struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Unit        string    `db:"unit" json:"unit"`
	WeightGrams *int      `db:"weight_grams" json:"weight_grams,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Meal is a catalog entry for prepared meals.
type Meal struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ServingSize *string   `db:"serving_size" json:"serving_size,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
