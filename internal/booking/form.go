package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// State is the position of a form in its submit cycle.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "confirmed"
)

// Field names accepted by SetField.
const (
	FieldPassengerName = "passengerName"
	FieldPhoneNumber   = "phoneNumber"
	FieldEmail         = "email"
	FieldPickup        = "pickup"
	FieldDropoff       = "dropoff"
	FieldDate          = "date"
	FieldTime          = "time"
	FieldVehicleType   = "vehicleType"
	FieldBaggage       = "baggage"
)

// DateLayout is the layout SetField expects for the date field.
const DateLayout = "2006-01-02"

const (
	defaultResetDelay    = 3 * time.Second
	defaultNotifyTimeout = 10 * time.Second
)

// Submission outcomes reported to an Observer.
const (
	OutcomeConfirmed    = "confirmed"
	OutcomeNotifyFailed = "confirmed_notify_failed"
	OutcomeInvalid      = "invalid"
	OutcomeInFlight     = "in_flight"
)

// Observer receives submission outcomes, typically a metrics collector.
type Observer interface {
	ObserveSubmission(outcome string)
}

// Fields is the raw form input.
type Fields struct {
	PassengerName string      `json:"passengerName"`
	PhoneNumber   string      `json:"phoneNumber"`
	Email         string      `json:"email"`
	Pickup        string      `json:"pickup"`
	Dropoff       string      `json:"dropoff"`
	Date          string      `json:"date"`
	Time          string      `json:"time"`
	VehicleType   VehicleType `json:"vehicleType"`
	Baggage       Baggage     `json:"baggage"`
}

func defaultFields() Fields {
	return Fields{VehicleType: VehicleStandard, Baggage: BaggageNone}
}

// Snapshot is a point-in-time copy of a form.
type Snapshot struct {
	State     State            `json:"state"`
	Fields    Fields           `json:"fields"`
	Errors    ValidationErrors `json:"errors,omitempty"`
	BookingID string           `json:"bookingId,omitempty"`
}

// Submission is the result of a Submit call that passed validation.
type Submission struct {
	BookingID string
	State     State
	// Delivered is false when the notifier failed; the booking is confirmed either way.
	Delivered bool
}

// FormConfig configures a Form.
type FormConfig struct {
	Notifier      Notifier
	Observer      Observer
	Logger        *logging.Logger
	Location      *time.Location
	ResetDelay    time.Duration
	NotifyTimeout time.Duration
	Now           func() time.Time
}

// Form holds one customer's booking input and drives the
// idle -> submitting -> confirmed -> idle cycle.
type Form struct {
	notifier      Notifier
	observer      Observer
	logger        *logging.Logger
	loc           *time.Location
	resetDelay    time.Duration
	notifyTimeout time.Duration
	now           func() time.Time

	mu         sync.Mutex
	fields     Fields
	state      State
	errors     ValidationErrors
	bookingID  string
	resetTimer *time.Timer
	generation uint64
	closed     bool
}

// NewForm returns an idle form with default field values.
func NewForm(cfg FormConfig) *Form {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ResetDelay <= 0 {
		cfg.ResetDelay = defaultResetDelay
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Form{
		notifier:      cfg.Notifier,
		observer:      cfg.Observer,
		logger:        cfg.Logger,
		loc:           cfg.Location,
		resetDelay:    cfg.ResetDelay,
		notifyTimeout: cfg.NotifyTimeout,
		now:           cfg.Now,
		fields:        defaultFields(),
		state:         StateIdle,
	}
}

// SetField updates one field. Phone input is reduced to its digits; an update
// with more than ten digits is dropped and the previous value kept.
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	switch name {
	case FieldPassengerName:
		f.fields.PassengerName = value
	case FieldPhoneNumber:
		if digits := SanitizePhone(value); len(digits) <= maxPhoneDigits {
			f.fields.PhoneNumber = digits
		}
	case FieldEmail:
		f.fields.Email = value
	case FieldPickup:
		f.fields.Pickup = value
	case FieldDropoff:
		f.fields.Dropoff = value
	case FieldDate:
		value = strings.TrimSpace(value)
		if value != "" {
			if _, err := time.ParseInLocation(DateLayout, value, f.loc); err != nil {
				return fmt.Errorf("%w: date must be %s", ErrInvalidValue, DateLayout)
			}
		}
		f.fields.Date = value
	case FieldTime:
		f.fields.Time = strings.TrimSpace(value)
	case FieldVehicleType:
		v, err := ParseVehicleType(value)
		if err != nil {
			return err
		}
		f.fields.VehicleType = v
	case FieldBaggage:
		b, err := ParseBaggage(value)
		if err != nil {
			return err
		}
		f.fields.Baggage = b
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Validate checks every field in order and returns the request when all pass.
func (f *Form) Validate() (BookingRequest, ValidationErrors) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *Form) validateLocked() (BookingRequest, ValidationErrors) {
	var errs ValidationErrors
	in := f.fields

	if strings.TrimSpace(in.PassengerName) == "" {
		errs = append(errs, ValidationError{Field: FieldPassengerName, Message: MsgNameRequired})
	}
	if !ValidPhone(in.PhoneNumber) {
		errs = append(errs, ValidationError{Field: FieldPhoneNumber, Message: MsgPhoneInvalid})
	}
	if !ValidEmail(in.Email) {
		errs = append(errs, ValidationError{Field: FieldEmail, Message: MsgEmailInvalid})
	}
	if strings.TrimSpace(in.Pickup) == "" {
		errs = append(errs, ValidationError{Field: FieldPickup, Message: MsgPickupRequired})
	}
	if strings.TrimSpace(in.Dropoff) == "" {
		errs = append(errs, ValidationError{Field: FieldDropoff, Message: MsgDropoffRequired})
	}

	var date time.Time
	if in.Date == "" {
		errs = append(errs, ValidationError{Field: FieldDate, Message: MsgDateRequired})
	} else {
		parsed, err := time.ParseInLocation(DateLayout, in.Date, f.loc)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{Field: FieldDate, Message: MsgDateRequired})
		case parsed.Before(f.today()):
			errs = append(errs, ValidationError{Field: FieldDate, Message: MsgDatePast})
		default:
			date = parsed
		}
	}

	if !ValidTimeSlot(in.Time) {
		errs = append(errs, ValidationError{Field: FieldTime, Message: MsgTimeRequired})
	}

	if len(errs) > 0 {
		return BookingRequest{}, errs
	}

	return BookingRequest{
		PassengerName: strings.TrimSpace(in.PassengerName),
		PhoneNumber:   in.PhoneNumber,
		Email:         strings.TrimSpace(in.Email),
		Pickup:        strings.TrimSpace(in.Pickup),
		Dropoff:       strings.TrimSpace(in.Dropoff),
		Date:          date,
		Time:          in.Time,
		VehicleType:   in.VehicleType,
		Baggage:       in.Baggage,
	}, nil
}

func (f *Form) today() time.Time {
	now := f.now().In(f.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, f.loc)
}

// Submit validates the form and relays the booking. Only one submission may
// be pending; a call while submitting or confirmed returns
// ErrSubmissionInFlight without contacting the notifier. A notifier failure
// is logged and the form is confirmed anyway.
func (f *Form) Submit(ctx context.Context) (Submission, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Submission{}, ErrClosed
	}
	if f.state != StateIdle {
		f.mu.Unlock()
		f.observe(OutcomeInFlight)
		return Submission{}, ErrSubmissionInFlight
	}
	req, verrs := f.validateLocked()
	f.errors = verrs
	if len(verrs) > 0 {
		f.mu.Unlock()
		f.observe(OutcomeInvalid)
		return Submission{State: StateIdle}, verrs
	}
	req.ID = uuid.NewString()
	req.BookingTime = f.now().UTC()
	f.state = StateSubmitting
	f.bookingID = req.ID
	f.mu.Unlock()

	err := f.dispatch(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateConfirmed
	if !f.closed {
		f.scheduleResetLocked()
	}

	outcome := OutcomeConfirmed
	if err != nil {
		outcome = OutcomeNotifyFailed
	}
	f.observe(outcome)

	return Submission{BookingID: req.ID, State: StateConfirmed, Delivered: err == nil}, nil
}

func (f *Form) dispatch(ctx context.Context, req BookingRequest) error {
	if f.notifier == nil {
		f.logger.Warn("booking: no notifier configured, booking not relayed", "booking_id", req.ID)
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, f.notifyTimeout)
	defer cancel()

	if err := f.notifier.NotifyBooking(ctx, req); err != nil {
		f.logger.Error("booking: notification failed",
			"error", err,
			"booking_id", req.ID,
			"passenger", req.PassengerName,
			"pickup", req.Pickup,
			"dropoff", req.Dropoff,
			"time", req.Time,
		)
		return err
	}
	f.logger.Info("booking: notification relayed", "booking_id", req.ID)
	return nil
}

func (f *Form) scheduleResetLocked() {
	if f.resetTimer != nil {
		f.resetTimer.Stop()
	}
	gen := f.generation
	f.resetTimer = time.AfterFunc(f.resetDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.generation != gen || f.closed {
			return
		}
		f.resetLocked()
	})
}

// Reset clears every field and returns the form to idle.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.resetLocked()
}

func (f *Form) resetLocked() {
	if f.resetTimer != nil {
		f.resetTimer.Stop()
		f.resetTimer = nil
	}
	f.generation++
	f.fields = defaultFields()
	f.state = StateIdle
	f.errors = nil
	f.bookingID = ""
}

// Close cancels any pending reset. The form rejects further changes.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	if f.resetTimer != nil {
		f.resetTimer.Stop()
		f.resetTimer = nil
	}
}

// State returns the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot copies the current state, fields and last validation errors.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		State:     f.state,
		Fields:    f.fields,
		Errors:    append(ValidationErrors(nil), f.errors...),
		BookingID: f.bookingID,
	}
}

func (f *Form) observe(outcome string) {
	if f.observer != nil {
		f.observer.ObserveSubmission(outcome)
	}
}
