package booking

import (
	"fmt"
	"strings"
)

// VehicleType is the class of car requested for a ride.
type VehicleType string

const (
	VehicleStandard    VehicleType = "standard"
	VehiclePremium     VehicleType = "premium"
	VehicleSUV         VehicleType = "suv"
	VehicleSevenSeater VehicleType = "sevenSeater"
	VehicleLimo        VehicleType = "limo"
)

// Baggage is the amount of luggage the passenger brings.
type Baggage string

const (
	BaggageNone     Baggage = "none"
	BaggageLight    Baggage = "light"
	BaggageModerate Baggage = "moderate"
	BaggageHeavy    Baggage = "heavy"
)

// Option is a selectable value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var vehicleOptions = []Option{
	{Value: string(VehicleStandard), Label: "Standard Taxi"},
	{Value: string(VehiclePremium), Label: "Premium Sedan"},
	{Value: string(VehicleSUV), Label: "SUV"},
	{Value: string(VehicleSevenSeater), Label: "7 Seater"},
	{Value: string(VehicleLimo), Label: "Limousine"},
}

var baggageOptions = []Option{
	{Value: string(BaggageNone), Label: "No Baggage"},
	{Value: string(BaggageLight), Label: "Light (1-2 bags)"},
	{Value: string(BaggageModerate), Label: "Moderate (2-3 bags)"},
	{Value: string(BaggageHeavy), Label: "Heavy (4+ bags)"},
}

// VehicleOptions lists vehicle types in display order.
func VehicleOptions() []Option {
	return append([]Option(nil), vehicleOptions...)
}

// BaggageOptions lists baggage choices in display order.
func BaggageOptions() []Option {
	return append([]Option(nil), baggageOptions...)
}

// ParseVehicleType accepts a vehicle value, ignoring surrounding whitespace.
func ParseVehicleType(s string) (VehicleType, error) {
	s = strings.TrimSpace(s)
	for _, opt := range vehicleOptions {
		if opt.Value == s {
			return VehicleType(s), nil
		}
	}
	return "", fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidValue, s)
}

// Label returns the display name, or the raw value when unknown.
func (v VehicleType) Label() string {
	return labelFor(vehicleOptions, string(v))
}

// ParseBaggage accepts a baggage value, ignoring surrounding whitespace.
func ParseBaggage(s string) (Baggage, error) {
	s = strings.TrimSpace(s)
	for _, opt := range baggageOptions {
		if opt.Value == s {
			return Baggage(s), nil
		}
	}
	return "", fmt.Errorf("%w: unknown baggage %q", ErrInvalidValue, s)
}

// Label returns the display name, or the raw value when unknown.
func (b Baggage) Label() string {
	return labelFor(baggageOptions, string(b))
}

func labelFor(opts []Option, value string) string {
	for _, opt := range opts {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

// timeSlots holds the 48 half-hour pickup slots, 12:00 AM through 11:30 PM.
var timeSlots = buildTimeSlots()

var timeSlotIndex = func() map[string]int {
	idx := make(map[string]int, len(timeSlots))
	for i, slot := range timeSlots {
		idx[slot] = i
	}
	return idx
}()

func buildTimeSlots() []string {
	slots := make([]string, 0, 48)
	for i := 0; i < 48; i++ {
		hour := i / 2
		minute := "00"
		if i%2 == 1 {
			minute = "30"
		}
		meridiem := "AM"
		if hour >= 12 {
			meridiem = "PM"
		}
		display := hour
		switch {
		case hour == 0:
			display = 12
		case hour > 12:
			display = hour - 12
		}
		slots = append(slots, fmt.Sprintf("%d:%s %s", display, minute, meridiem))
	}
	return slots
}

// TimeSlots returns a copy of the pickup time labels in chronological order.
func TimeSlots() []string {
	return append([]string(nil), timeSlots...)
}

// ValidTimeSlot reports whether label is one of the pickup slots.
func ValidTimeSlot(label string) bool {
	_, ok := timeSlotIndex[label]
	return ok
}
