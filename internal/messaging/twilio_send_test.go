package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) *TwilioSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewTwilioSender("AC123", "secret", "5180000000", logging.New("error"))
	s.baseURL = srv.URL
	s.sleep = func(time.Duration) {}
	return s
}

func TestTwilioSendSMS(t *testing.T) {
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "+15188199978", r.PostForm.Get("To"))
		assert.Equal(t, "+15180000000", r.PostForm.Get("From"))
		assert.Equal(t, "hello", r.PostForm.Get("Body"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	})

	require.NoError(t, s.SendSMS(context.Background(), "(518) 819-9978", "hello"))
}

func TestTwilioRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, s.SendSMS(context.Background(), "+15188199978", "hi"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestTwilioDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number","status":400}`))
	})

	err := s.SendSMS(context.Background(), "+15188199978", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400 code 21211: Invalid 'To' Phone Number")
	assert.Equal(t, int32(1), calls.Load())
}

func TestTwilioRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := s.SendSMS(context.Background(), "+15188199978", "hi")
	require.Error(t, err)
	assert.Equal(t, int32(twilioMaxAttempts), calls.Load())
}

func TestTwilioValidatesInput(t *testing.T) {
	s := NewTwilioSender("", "", "", nil)
	assert.False(t, s.Configured())
	assert.Error(t, s.SendSMS(context.Background(), "+15188199978", "hi"))

	s = NewTwilioSender("AC", "tok", "", nil)
	assert.Error(t, s.SendSMS(context.Background(), "+15188199978", "hi"))

	s = NewTwilioSender("AC", "tok", "+15180000000", nil)
	assert.True(t, s.Configured())
	assert.Error(t, s.SendSMS(context.Background(), "", "hi"))
	assert.Error(t, s.SendSMS(context.Background(), "+15188199978", "  "))
}

func TestNormalizeE164(t *testing.T) {
	assert.Equal(t, "+15188199978", NormalizeE164("(518) 819-9978"))
	assert.Equal(t, "+15188199978", NormalizeE164("+1 518 819 9978"))
	assert.Equal(t, "", NormalizeE164("n/a"))
}

func TestFormatTwilioError(t *testing.T) {
	assert.Equal(t, "status 500", formatTwilioError(500, nil))
	assert.Equal(t, "status 502: bad gateway", formatTwilioError(502, []byte(" bad gateway ")))
	assert.Equal(t, "status 401: Authenticate", formatTwilioError(401, []byte(`{"message":"Authenticate"}`)))
}
