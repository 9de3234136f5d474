package reviews

import (
	"errors"
	"fmt"
	"strings"
)

// Review is a customer testimonial shown on the site.
type Review struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Validate checks a single review.
func (r Review) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("reviews: id required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("reviews: review %s: name required", r.ID)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("reviews: review %s: rating %d outside 1-5", r.ID, r.Rating)
	}
	return nil
}

// ValidateSet checks a review set: non-empty, unique ids, every review valid.
func ValidateSet(set []Review) error {
	if len(set) == 0 {
		return ErrEmpty
	}
	seen := make(map[string]struct{}, len(set))
	for _, r := range set {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("reviews: duplicate id %s", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

var defaultReviews = []Review{
	{
		ID:     "1",
		Name:   "Sarah Johnson",
		Rating: 5,
		Text:   "Fair Deal Taxi Service is absolutely fantastic! The driver was professional, courteous, and arrived exactly on time. The vehicle was clean and comfortable. I'll definitely be using them for all my rides in the future!",
		Source: "Google Reviews",
		Date:   "January 8, 2026",
	},
	{
		ID:     "2",
		Name:   "Michael Chen",
		Rating: 5,
		Text:   "Best taxi service in the Capital Region hands down. I've used them for airport runs multiple times and they've never let me down. Highly reliable and reasonably priced. Highly recommended!",
		Source: "Yelp",
		Date:   "January 5, 2026",
	},
	{
		ID:     "3",
		Name:   "Jennifer Martinez",
		Rating: 5,
		Text:   "Fair Deal is the only taxi service I trust. Safe drivers, clean cars, and transparent pricing. Had an issue once and their customer service resolved it immediately. Five stars!",
		Source: "Google Reviews",
		Date:   "December 28, 2025",
	},
	{
		ID:     "4",
		Name:   "Robert Thompson",
		Rating: 5,
		Text:   "Used Fair Deal for a wedding day ride. The driver was early, friendly, and made sure I arrived looking perfect. Outstanding service from start to finish. Worth every penny!",
		Source: "Facebook",
		Date:   "December 20, 2025",
	},
	{
		ID:     "5",
		Name:   "Emma Wilson",
		Rating: 5,
		Text:   "I'm impressed with Fair Deal's professionalism and efficiency. Booked through their website, ride was smooth, driver knew the routes perfectly. This is what customer service should look like!",
		Source: "Google Reviews",
		Date:   "December 15, 2025",
	},
}

// Defaults returns a copy of the built-in reviews in authored order.
func Defaults() []Review {
	return append([]Review(nil), defaultReviews...)
}
