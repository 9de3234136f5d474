package business

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	p := Default("", "")
	assert.Equal(t, "fairdealcarservice@gmail.com", p.Email)
	assert.Equal(t, "+15188199978", p.Phone)
	assert.Equal(t, "(518) 819-9978", p.PhoneDisplay)
	assert.Equal(t, "Albany • Schenectady • Troy • Saratoga Springs", p.ServiceAreaLabel())
	assert.Len(t, p.Services, 4)
	assert.Len(t, p.Features, 4)
}

func TestDefaultProfileOverrides(t *testing.T) {
	p := Default(" ops@example.com ", "+1 (555) 010-2000")
	assert.Equal(t, "ops@example.com", p.Email)
	assert.Equal(t, "+1 (555) 010-2000", p.Phone)
	assert.Equal(t, "(555) 010-2000", p.PhoneDisplay)
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "(518) 819-9978", FormatPhone("5188199978"))
	assert.Equal(t, "(518) 819-9978", FormatPhone("+15188199978"))
	assert.Equal(t, "", FormatPhone("819-9978"))
	assert.Equal(t, "", FormatPhone("25188199978"))
}

func TestHandler(t *testing.T) {
	w := httptest.NewRecorder()
	Handler(Default("", ""))(w, httptest.NewRequest(http.MethodGet, "/api/business", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got Profile
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Fair Deal Taxi Service", got.Name)
	assert.Equal(t, "24/7 Service", got.Hours)
}
