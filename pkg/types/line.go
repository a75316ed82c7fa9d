package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// LineItem is one supply or demand line on a Donation or RequestNeed.
// Quantity is the original amount, Remaining the live unallocated counter.
type LineItem struct {
	Ref       string `json:"ref"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	Remaining int    `json:"remaining"`
}

type LineItems []LineItem

// Find returns the line with the given ref, or nil.
func (l LineItems) Find(ref string) *LineItem {
	for i := range l {
		if l[i].Ref == ref {
			return &l[i]
		}
	}
	return nil
}

func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		l = LineItems{}
	}
	return json.Marshal(l)
}

func (l *LineItems) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("cannot scan %T into LineItems", src)
}

// AllocationLine is one validated (ref, quantity) pair drawn from a
// donation's supply to satisfy the matching request line.
type AllocationLine struct {
	Ref      string `json:"ref"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
}

type AllocationLines []AllocationLine

func (l AllocationLines) Value() (driver.Value, error) {
	if l == nil {
		l = AllocationLines{}
	}
	return json.Marshal(l)
}

func (l *AllocationLines) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("cannot scan %T into AllocationLines", src)
}

// Total sums the allocated quantities.
func (l AllocationLines) Total() int {
	var total int
	for _, line := range l {
		total += line.Quantity
	}
	return total
}
