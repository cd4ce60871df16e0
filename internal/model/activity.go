package model

import "time"

// SystemCreator is the attribution recorded when a catalog or offer write
// arrives without a creator header.
const SystemCreator = "System"

// Activity is a bookable experience.  CreatedBy holds the owner's email
// (or SystemCreator); it is an attribution, not a foreign key.  Packages
// are kept in Position order.
type Activity struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Image       string    `json:"image"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Rating      float64   `json:"rating"`
	Duration    string    `json:"duration"`
	Active      bool      `json:"active"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Packages    []Package `json:"packages"`
}

// Capacity returns the derived activity-level spot count, the sum of the
// spot counts of its packages.
func (a Activity) Capacity() int {
	total := 0
	for _, p := range a.Packages {
		total += p.Availability
	}
	return total
}

// Package looks up one of the activity's packages by id.
func (a Activity) Package(id uint64) (Package, bool) {
	for _, p := range a.Packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

// Package is a priced tier of an Activity with its own per-date spot
// count.  Packages are deleted together with their activity.
type Package struct {
	ID                uint64   `json:"id"`
	ActivityID        uint64   `json:"activityId"`
	Position          int      `json:"position"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Price             float64  `json:"price"`
	ForeignAdultPrice float64  `json:"foreignAdultPrice"`
	ForeignKidPrice   float64  `json:"foreignKidPrice"`
	LocalAdultPrice   float64  `json:"localAdultPrice"`
	LocalKidPrice     float64  `json:"localKidPrice"`
	Availability      int      `json:"availability"`
	Features          []string `json:"features"`
}
