package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
	"github.com/wolfman30/fairdeal-taxi/internal/business"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

type mockEmailSender struct {
	mu     sync.Mutex
	sent   []EmailMessage
	failOn string // fail if To matches this
	err    error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.failOn != "" && msg.To == m.failOn {
		return errors.New("mock email error")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type sentSMS struct{ to, body string }

type mockSMSSender struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (m *mockSMSSender) SendSMS(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentSMS{to, body})
	return nil
}

type recordingObserver struct {
	mu       sync.Mutex
	channels map[string]string
	outcomes []string
}

func (o *recordingObserver) ObserveNotification(channel, status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.channels == nil {
		o.channels = make(map[string]string)
	}
	o.channels[channel] = status
}

func (o *recordingObserver) ObserveRelay(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func testPayload() booking.Payload {
	return booking.Payload{
		BookingID:     "bk-1",
		PassengerName: "Jane Doe",
		PhoneNumber:   "5185551234",
		Email:         "jane@example.com",
		Pickup:        "123 Main St",
		Dropoff:       "Albany Airport",
		Date:          "October 17th, 2026",
		Time:          "9:00 AM",
		VehicleType:   "suv",
		Baggage:       "light",
		EstimatedFare: 42.5,
		BookingTime:   "2026-10-16T14:00:00Z",
	}
}

func testProfile() business.Profile {
	return business.Default("owner@fairdeal.test", "+15188199978")
}

func TestNotifyBookingSendsAllChannels(t *testing.T) {
	email := &mockEmailSender{}
	sms := &mockSMSSender{}
	obs := &recordingObserver{}
	svc := NewService(email, sms, testProfile(), logging.New("error"), WithObserver(obs))

	outcome, err := svc.NotifyBooking(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)

	require.Len(t, email.sent, 2)
	biz := email.sent[0]
	assert.Equal(t, "owner@fairdeal.test", biz.To)
	assert.Equal(t, "New Taxi Booking - Jane Doe", biz.Subject)
	assert.Contains(t, biz.Body, "Pickup: 123 Main St")
	assert.Contains(t, biz.Body, "Vehicle Type: SUV")
	assert.Contains(t, biz.Body, "Estimated Fare: $42.50")
	assert.Contains(t, biz.HTML, `<a href="tel:5185551234">`)
	assert.Equal(t, "jane@example.com", biz.ReplyTo)
	assert.Equal(t, categoryDispatch, biz.Category)

	customer := email.sent[1]
	assert.Equal(t, "jane@example.com", customer.To)
	assert.Equal(t, "Your Fair Deal Taxi Booking Confirmation", customer.Subject)
	assert.Contains(t, customer.Body, "Thank you, Jane Doe!")
	assert.Contains(t, customer.Body, "Phone: (518) 819-9978")
	assert.Equal(t, "owner@fairdeal.test", customer.ReplyTo)
	assert.Equal(t, categoryConfirmation, customer.Category)

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "+15188199978", sms.sent[0].to)
	assert.Equal(t,
		"Fair Deal Taxi: New booking from Jane Doe. 123 Main St → Albany Airport. October 17th, 2026 at 9:00 AM. Vehicle: SUV. Est. fare: $42.50. Call 5185551234 to confirm.",
		sms.sent[0].body)

	assert.Equal(t, "sent", obs.channels[ChannelBusinessEmail])
	assert.Equal(t, "sent", obs.channels[ChannelBusinessSMS])
	assert.Equal(t, "sent", obs.channels[ChannelCustomerEmail])
	assert.Equal(t, []string{"sent"}, obs.outcomes)
}

func TestNotifyBookingSkipsCustomerWithoutEmail(t *testing.T) {
	email := &mockEmailSender{}
	svc := NewService(email, &mockSMSSender{}, testProfile(), logging.New("error"))

	p := testPayload()
	p.Email = booking.EmailNotProvided
	p.EstimatedFare = 0

	outcome, err := svc.NotifyBooking(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0].Body, "Email: Not provided")
	assert.Empty(t, email.sent[0].ReplyTo)
	assert.NotContains(t, email.sent[0].Body, "Estimated Fare")
}

func TestNotifyBookingIgnoresPayloadRecipients(t *testing.T) {
	email := &mockEmailSender{}
	sms := &mockSMSSender{}
	svc := NewService(email, sms, testProfile(), logging.New("error"))

	p := testPayload()
	p.BusinessEmail = "attacker@example.com"
	p.BusinessPhone = "+19995550000"

	_, err := svc.NotifyBooking(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "owner@fairdeal.test", email.sent[0].To)
	assert.Equal(t, "+15188199978", sms.sent[0].to)
}

func TestNotifyBookingPartialFailure(t *testing.T) {
	email := &mockEmailSender{}
	sms := &mockSMSSender{err: errors.New("twilio 500")}
	obs := &recordingObserver{}
	svc := NewService(email, sms, testProfile(), logging.New("error"), WithObserver(obs))

	outcome, err := svc.NotifyBooking(context.Background(), testPayload())
	require.Error(t, err)
	assert.Equal(t, OutcomePartial, outcome)
	assert.Contains(t, err.Error(), "twilio 500")
	assert.Equal(t, "failed", obs.channels[ChannelBusinessSMS])
}

func TestNotifyBookingTotalFailure(t *testing.T) {
	svc := NewService(
		&mockEmailSender{err: errors.New("smtp down")},
		&mockSMSSender{err: errors.New("sms down")},
		testProfile(), logging.New("error"),
	)

	outcome, err := svc.NotifyBooking(context.Background(), testPayload())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Contains(t, err.Error(), "sms down")
}

func TestNotifyBookingRejectsInvalidPayload(t *testing.T) {
	email := &mockEmailSender{}
	svc := NewService(email, &mockSMSSender{}, testProfile(), logging.New("error"))

	p := testPayload()
	p.PassengerName = " "
	outcome, err := svc.NotifyBooking(context.Background(), p)
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Empty(t, email.sent)
}

func TestNotifyBookingEscapesHTML(t *testing.T) {
	email := &mockEmailSender{}
	svc := NewService(email, &mockSMSSender{}, testProfile(), logging.New("error"))

	p := testPayload()
	p.PassengerName = `<script>alert("x")</script>`
	_, err := svc.NotifyBooking(context.Background(), p)
	require.NoError(t, err)

	for _, msg := range email.sent {
		assert.NotContains(t, msg.HTML, "<script>")
		assert.True(t, strings.Contains(msg.HTML, "&lt;script&gt;"))
	}
}

func newDedupeRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestNotifyBookingDeduplicates(t *testing.T) {
	client, _ := newDedupeRedis(t)
	email := &mockEmailSender{}
	svc := NewService(email, &mockSMSSender{}, testProfile(), logging.New("error"),
		WithDeduper(NewDeduper(client, time.Hour)))

	outcome, err := svc.NotifyBooking(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)

	outcome, err = svc.NotifyBooking(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Len(t, email.sent, 2, "second relay sends nothing")
}

func TestNotifyBookingReleasesClaimOnTotalFailure(t *testing.T) {
	client, mr := newDedupeRedis(t)
	email := &mockEmailSender{err: errors.New("down")}
	sms := &mockSMSSender{err: errors.New("down")}
	svc := NewService(email, sms, testProfile(), logging.New("error"),
		WithDeduper(NewDeduper(client, time.Hour)))

	outcome, _ := svc.NotifyBooking(context.Background(), testPayload())
	assert.Equal(t, OutcomeFailed, outcome)
	assert.False(t, mr.Exists(dedupeKeyPrefix+"bk-1"))

	email.err, sms.err = nil, nil
	outcome, err := svc.NotifyBooking(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
}

func TestNotifyBookingSendsWhenRedisDown(t *testing.T) {
	client, mr := newDedupeRedis(t)
	mr.Close()

	email := &mockEmailSender{}
	svc := NewService(email, &mockSMSSender{}, testProfile(), logging.New("error"),
		WithDeduper(NewDeduper(client, time.Hour)))

	outcome, err := svc.NotifyBooking(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
}

func TestDeduperTTL(t *testing.T) {
	client, mr := newDedupeRedis(t)
	d := NewDeduper(client, time.Minute)

	first, err := d.Claim(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, time.Minute, mr.TTL(dedupeKeyPrefix+"abc"))

	mr.FastForward(2 * time.Minute)
	again, err := d.Claim(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, again)
}

func TestNilDeduperClaimsEverything(t *testing.T) {
	var d *Deduper
	ok, err := d.Claim(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, NewDeduper(nil, 0))
	assert.NoError(t, d.Release(context.Background(), "x"))
}

func TestBookingNotifierTreatsPartialAsDelivered(t *testing.T) {
	svc := NewService(&mockEmailSender{}, &mockSMSSender{err: errors.New("down")}, testProfile(), logging.New("error"))
	n := NewBookingNotifier(svc, booking.Contact{Email: "owner@fairdeal.test", Phone: "+15188199978"})

	err := n.NotifyBooking(context.Background(), booking.BookingRequest{
		ID:            "bk-9",
		PassengerName: "Sam",
		PhoneNumber:   "5185550000",
		Pickup:        "A",
		Dropoff:       "B",
		Date:          time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
		Time:          "10:00 AM",
		VehicleType:   booking.VehicleLimo,
		Baggage:       booking.BaggageNone,
	})
	assert.NoError(t, err)
}
