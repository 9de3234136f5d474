package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EmailNotProvided is sent in place of a blank customer email.
const EmailNotProvided = "Not provided"

// BookingRequest is a validated ride request ready to be relayed.
type BookingRequest struct {
	ID            string
	PassengerName string
	PhoneNumber   string
	Email         string
	Pickup        string
	Dropoff       string
	Date          time.Time
	Time          string
	VehicleType   VehicleType
	Baggage       Baggage
	BookingTime   time.Time
}

// Notifier forwards a booking to the business. Errors are reported to the
// caller but never block the customer's confirmation.
type Notifier interface {
	NotifyBooking(ctx context.Context, req BookingRequest) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, req BookingRequest) error

func (f NotifierFunc) NotifyBooking(ctx context.Context, req BookingRequest) error {
	return f(ctx, req)
}

// Contact is the business destination attached to every payload.
type Contact struct {
	Email string
	Phone string
}

// Payload is the JSON document accepted by the notification relay.
type Payload struct {
	BookingID     string  `json:"bookingId,omitempty"`
	PassengerName string  `json:"passengerName"`
	PhoneNumber   string  `json:"phoneNumber"`
	Email         string  `json:"email"`
	Pickup        string  `json:"pickup"`
	Dropoff       string  `json:"dropoff"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	VehicleType   string  `json:"vehicleType"`
	Baggage       string  `json:"baggage"`
	EstimatedFare float64 `json:"estimatedFare,omitempty"`
	BookingTime   string  `json:"bookingTime"`
	BusinessEmail string  `json:"businessEmail,omitempty"`
	BusinessPhone string  `json:"businessPhone,omitempty"`
}

// NewPayload renders req into the relay wire format.
func NewPayload(req BookingRequest, contact Contact) Payload {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = EmailNotProvided
	}
	var date string
	if !req.Date.IsZero() {
		date = FormatLongDate(req.Date)
	}
	bookingTime := req.BookingTime
	if bookingTime.IsZero() {
		bookingTime = time.Now()
	}
	return Payload{
		BookingID:     req.ID,
		PassengerName: req.PassengerName,
		PhoneNumber:   req.PhoneNumber,
		Email:         email,
		Pickup:        req.Pickup,
		Dropoff:       req.Dropoff,
		Date:          date,
		Time:          req.Time,
		VehicleType:   string(req.VehicleType),
		Baggage:       string(req.Baggage),
		BookingTime:   bookingTime.UTC().Format(time.RFC3339),
		BusinessEmail: contact.Email,
		BusinessPhone: contact.Phone,
	}
}

// CustomerEmail returns the address to confirm to, or "" when none was given.
func (p Payload) CustomerEmail() string {
	email := strings.TrimSpace(p.Email)
	if email == "" || strings.EqualFold(email, EmailNotProvided) {
		return ""
	}
	return email
}

// VehicleLabel returns the display name of the requested vehicle.
func (p Payload) VehicleLabel() string {
	return VehicleType(p.VehicleType).Label()
}

// BaggageLabel returns the display name of the baggage choice.
func (p Payload) BaggageLabel() string {
	return Baggage(p.Baggage).Label()
}

// Validate checks the fields the relay cannot work without.
func (p Payload) Validate() error {
	var errs []error
	if strings.TrimSpace(p.PassengerName) == "" {
		errs = append(errs, errors.New("passengerName is required"))
	}
	if strings.TrimSpace(p.PhoneNumber) == "" {
		errs = append(errs, errors.New("phoneNumber is required"))
	}
	if strings.TrimSpace(p.Pickup) == "" || strings.TrimSpace(p.Dropoff) == "" {
		errs = append(errs, errors.New("pickup and dropoff are required"))
	}
	if p.EstimatedFare < 0 {
		errs = append(errs, fmt.Errorf("estimatedFare must not be negative"))
	}
	return errors.Join(errs...)
}

// FormatLongDate renders t like "October 17th, 2026".
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%s %d%s, %d", t.Month(), t.Day(), ordinalSuffix(t.Day()), t.Year())
}

func ordinalSuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
