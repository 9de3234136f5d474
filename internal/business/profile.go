package business

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Service is one of the offerings listed on the site.
type Service struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Feature is a selling point shown under "why choose us".
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Address is the business's street address.
type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	MapsURL string `json:"mapsUrl"`
}

// Profile holds the public contact details and marketing copy of the business.
type Profile struct {
	Name         string    `json:"name"`
	ShortName    string    `json:"shortName"`
	Phone        string    `json:"phone"`
	PhoneDisplay string    `json:"phoneDisplay"`
	Email        string    `json:"email"`
	Website      string    `json:"website"`
	Address      Address   `json:"address"`
	ServiceArea  []string  `json:"serviceArea"`
	Hours        string    `json:"hours"`
	Services     []Service `json:"services"`
	Features     []Feature `json:"features"`
}

// Default returns the Fair Deal profile. Empty email or phone keep the
// built-in values.
func Default(email, phone string) Profile {
	p := Profile{
		Name:         "Fair Deal Taxi Service",
		ShortName:    "Fair Deal Taxi",
		Phone:        "+15188199978",
		PhoneDisplay: "(518) 819-9978",
		Email:        "fairdealcarservice@gmail.com",
		Website:      "https://www.fairdealtaxi.com",
		Address: Address{
			Line1:   "1 Barney Road Suite 246",
			Line2:   "Clifton Park, NY 12065",
			MapsURL: "https://www.google.com/maps/search/1+Barney+Road+Suite+246+Clifton+Park+NY+12065",
		},
		ServiceArea: []string{"Albany", "Schenectady", "Troy", "Saratoga Springs"},
		Hours:       "24/7 Service",
		Services: []Service{
			{Title: "Corporate Travel", Description: "Major Airport, Amtrak, Bus Station, Hotels, Special Events & Online Booking"},
			{Title: "Pickup & Drop", Description: "Reliable point-to-point transportation anywhere in the Capital Region"},
			{Title: "Hourly Service", Description: "Book by the hour for meetings, errands, or all-day transportation needs"},
			{Title: "Black Car & Limo Services", Description: "Premium luxury vehicles for special occasions and VIP transportation"},
		},
		Features: []Feature{
			{Title: "Fast & Reliable", Description: "On-time pickup and drop-off, every time"},
			{Title: "Professional Drivers", Description: "Licensed, experienced, and Clean Background-checked"},
			{Title: "Safe & Comfortable", Description: "Clean, well-maintained vehicles"},
			{Title: "All Payment Methods", Description: "We accept all major credit cards"},
		},
	}
	if email = strings.TrimSpace(email); email != "" {
		p.Email = email
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		p.Phone = phone
		if display := FormatPhone(phone); display != "" {
			p.PhoneDisplay = display
		}
	}
	return p
}

// ServiceAreaLabel joins the service area like the site footer does.
func (p Profile) ServiceAreaLabel() string {
	return strings.Join(p.ServiceArea, " • ")
}

// FormatPhone renders a US number as "(518) 819-9978". It returns "" when
// the input does not hold 10 digits after an optional leading 1.
func FormatPhone(phone string) string {
	var digits []byte
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}
	return "(" + string(digits[:3]) + ") " + string(digits[3:6]) + "-" + string(digits[6:])
}

// Handler serves GET /api/business.
func Handler(p Profile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(p)
	}
}
