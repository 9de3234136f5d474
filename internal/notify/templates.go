package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
	"github.com/wolfman30/fairdeal-taxi/internal/business"
)

const (
	customerSubject = "Your Fair Deal Taxi Booking Confirmation"
	rowStyle        = `style="padding: 8px; border-bottom: 1px solid #e5e7eb;"`

	categoryDispatch     = "booking-dispatch"
	categoryConfirmation = "booking-confirmation"
)

func businessSubject(p booking.Payload) string {
	return fmt.Sprintf("New Taxi Booking - %s", p.PassengerName)
}

func formatFare(fare float64) string {
	if fare <= 0 {
		return ""
	}
	return fmt.Sprintf("$%.2f", fare)
}

func formatBusinessEmailText(p booking.Payload, profile business.Profile) string {
	var b strings.Builder
	b.WriteString("New Taxi Booking Received\n\n")
	b.WriteString("Customer Information:\n")
	fmt.Fprintf(&b, "Name: %s\n", p.PassengerName)
	fmt.Fprintf(&b, "Phone: %s\n", p.PhoneNumber)
	fmt.Fprintf(&b, "Email: %s\n\n", emailOrNotProvided(p))
	b.WriteString("Trip Details:\n")
	fmt.Fprintf(&b, "Pickup: %s\n", p.Pickup)
	fmt.Fprintf(&b, "Dropoff: %s\n", p.Dropoff)
	fmt.Fprintf(&b, "Date: %s\n", p.Date)
	fmt.Fprintf(&b, "Time: %s\n", p.Time)
	fmt.Fprintf(&b, "Vehicle Type: %s\n", p.VehicleLabel())
	fmt.Fprintf(&b, "Baggage: %s\n", p.BaggageLabel())
	if fare := formatFare(p.EstimatedFare); fare != "" {
		fmt.Fprintf(&b, "Estimated Fare: %s\n", fare)
	}
	if p.BookingID != "" {
		fmt.Fprintf(&b, "Booking ID: %s\n", p.BookingID)
	}
	b.WriteString("\nPlease contact the customer to confirm the booking.\n\n")
	fmt.Fprintf(&b, "— %s", profile.Name)
	return b.String()
}

func htmlRow(label, value string) string {
	return fmt.Sprintf(`<tr><td %s><strong>%s:</strong></td><td %s>%s</td></tr>`,
		rowStyle, label, rowStyle, html.EscapeString(value))
}

func formatBusinessEmailHTML(p booking.Payload, profile business.Profile) string {
	rows := []string{
		htmlRow("Name", p.PassengerName),
		fmt.Sprintf(`<tr><td %s><strong>Phone:</strong></td><td %s><a href="tel:%s">%s</a></td></tr>`,
			rowStyle, rowStyle, html.EscapeString(p.PhoneNumber), html.EscapeString(p.PhoneNumber)),
		htmlRow("Email", emailOrNotProvided(p)),
		htmlRow("Pickup", p.Pickup),
		htmlRow("Dropoff", p.Dropoff),
		htmlRow("Date", p.Date),
		htmlRow("Time", p.Time),
		htmlRow("Vehicle Type", p.VehicleLabel()),
		htmlRow("Baggage", p.BaggageLabel()),
	}
	if fare := formatFare(p.EstimatedFare); fare != "" {
		rows = append(rows, htmlRow("Estimated Fare", fare))
	}

	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #f59e0b;">New Taxi Booking Received</h2>
<table style="border-collapse: collapse; margin: 20px 0;">
  %s
</table>
<p>Please contact the customer to confirm the booking.</p>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— %s</p>
</div>`, strings.Join(rows, "\n  "), html.EscapeString(profile.Name))
}

func formatBusinessSMS(p booking.Payload, profile business.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: New booking from %s. %s → %s. %s at %s. Vehicle: %s.",
		profile.ShortName, p.PassengerName, p.Pickup, p.Dropoff, p.Date, p.Time, p.VehicleLabel())
	if fare := formatFare(p.EstimatedFare); fare != "" {
		fmt.Fprintf(&b, " Est. fare: %s.", fare)
	}
	fmt.Fprintf(&b, " Call %s to confirm.", p.PhoneNumber)
	return b.String()
}

func formatCustomerEmailText(p booking.Payload, profile business.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you, %s! Your booking has been received.\n\n", p.PassengerName)
	fmt.Fprintf(&b, "Pickup: %s\n", p.Pickup)
	fmt.Fprintf(&b, "Dropoff: %s\n", p.Dropoff)
	fmt.Fprintf(&b, "Date & Time: %s at %s\n", p.Date, p.Time)
	fmt.Fprintf(&b, "Vehicle: %s\n", p.VehicleLabel())
	if fare := formatFare(p.EstimatedFare); fare != "" {
		fmt.Fprintf(&b, "Est. Fare: %s\n", fare)
	}
	b.WriteString("\nWe will call you shortly to confirm your booking.\n\n")
	fmt.Fprintf(&b, "%s\nPhone: %s", profile.Name, profile.PhoneDisplay)
	return b.String()
}

func formatCustomerEmailHTML(p booking.Payload, profile business.Profile) string {
	var fare string
	if f := formatFare(p.EstimatedFare); f != "" {
		fare = fmt.Sprintf("\n<p><strong>Est. Fare:</strong> %s</p>", f)
	}
	return fmt.Sprintf(`<h2>Booking Confirmation</h2>
<p>Thank you, %s! Your booking has been received.</p>
<p><strong>Pickup:</strong> %s</p>
<p><strong>Dropoff:</strong> %s</p>
<p><strong>Date &amp; Time:</strong> %s at %s</p>
<p><strong>Vehicle:</strong> %s</p>%s
<p>We will call you shortly to confirm your booking.</p>
<p>%s<br>Phone: %s</p>`,
		html.EscapeString(p.PassengerName),
		html.EscapeString(p.Pickup),
		html.EscapeString(p.Dropoff),
		html.EscapeString(p.Date), html.EscapeString(p.Time),
		html.EscapeString(p.VehicleLabel()),
		fare,
		html.EscapeString(profile.Name), html.EscapeString(profile.PhoneDisplay),
	)
}

func emailOrNotProvided(p booking.Payload) string {
	if email := p.CustomerEmail(); email != "" {
		return email
	}
	return booking.EmailNotProvided
}
