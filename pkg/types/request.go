package types

import (
	"time"
)

// RequestNeed mirrors Donation's shape but represents demand rather than
// supply: remaining quantities count unmet need.
type RequestNeed struct {
	ID          string `db:"id" json:"id"`
	RecipientID string `db:"recipient_id" json:"recipient_id"`

	Category           Category  `db:"category" json:"category"`
	RequestedProducts  LineItems `db:"requested_products" json:"requested_products,omitempty"`
	RequestedMeals     LineItems `db:"requested_meals" json:"requested_meals,omitempty"`

	NumberOfMeals int `db:"number_of_meals" json:"number_of_meals,omitempty"`
	OriginalMeals int `db:"original_meals" json:"original_meals,omitempty"`

	Status  EntityStatus `db:"status" json:"status"`
	Version int          `db:"version" json:"version"`

	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Lines returns the demand lines for the request's category.
func (r *RequestNeed) Lines() LineItems {
	if r.Category == CategoryPreparedMeals {
		return r.RequestedMeals
	}
	return r.RequestedProducts
}
