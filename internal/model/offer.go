package model

import "time"

// Offer is a discount campaign for one activity.  SelectedPackages limits
// the offer to specific packages; an empty list means every package of the
// activity.  An offer applies only while Active and while the current date
// lies within [StartDate, EndDate].
type Offer struct {
	ID                  uint64     `json:"id"`
	Title               string     `json:"title"`
	Image               string     `json:"image"`
	Discount            string     `json:"discount"`
	DiscountPercentage  float64    `json:"discountPercentage"`
	Active              bool       `json:"active"`
	SelectedForHomepage bool       `json:"selectedForHomepage"`
	CreatedBy           string     `json:"createdBy"`
	ActivityID          uint64     `json:"activityId"`
	ActivityTitle       string     `json:"activityTitle"`
	StartDate           *time.Time `json:"startDate,omitempty"`
	EndDate             *time.Time `json:"endDate,omitempty"`
	SelectedPackages    []uint64   `json:"selectedPackages"`
	Description         string     `json:"description"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// CoversPackage reports whether the offer applies to packageID.
func (o Offer) CoversPackage(packageID uint64) bool {
	if len(o.SelectedPackages) == 0 {
		return true
	}
	for _, id := range o.SelectedPackages {
		if id == packageID {
			return true
		}
	}
	return false
}

// ValidOn reports whether day (a calendar date) falls inside the offer's
// date range.  Open ends are unbounded.
func (o Offer) ValidOn(day time.Time) bool {
	d := truncateDay(day)
	if o.StartDate != nil && d.Before(truncateDay(*o.StartDate)) {
		return false
	}
	if o.EndDate != nil && d.After(truncateDay(*o.EndDate)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
