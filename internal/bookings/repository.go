package bookings

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a booking id is unknown.
var ErrNotFound = errors.New("bookings: not found")

// ErrInvalidStatus is returned for a status outside the known set.
var ErrInvalidStatus = errors.New("bookings: invalid status")

// Status tracks a booking from receipt to the dispatcher's decision.
type Status string

const (
	StatusReceived     Status = "received"
	StatusNotified     Status = "notified"
	StatusNotifyFailed Status = "notify_failed"
	StatusConfirmed    Status = "confirmed"
	StatusCancelled    Status = "cancelled"
)

// ParseStatus validates s.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusReceived, StatusNotified, StatusNotifyFailed, StatusConfirmed, StatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// Record is a relayed booking as stored for the dispatcher.
type Record struct {
	ID            string     `json:"id"`
	PassengerName string     `json:"passengerName"`
	PhoneNumber   string     `json:"phoneNumber"`
	Email         string     `json:"email,omitempty"`
	Pickup        string     `json:"pickup"`
	Dropoff       string     `json:"dropoff"`
	RideDate      string     `json:"rideDate"`
	RideTime      string     `json:"rideTime"`
	VehicleType   string     `json:"vehicleType"`
	Baggage       string     `json:"baggage"`
	EstimatedFare float64    `json:"estimatedFare,omitempty"`
	Status        Status     `json:"status"`
	Source        string     `json:"source"`
	NotifiedAt    *time.Time `json:"notifiedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Repository persists booking records.
type Repository interface {
	Create(ctx context.Context, rec *Record) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

func normalizeID(id string) (string, error) {
	if id == "" {
		return uuid.NewString(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", errors.New("bookings: id must be a UUID")
	}
	return parsed.String(), nil
}

// lookupID canonicalizes an id for reads and updates. An id that is not a
// UUID cannot name a stored booking.
func lookupID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrNotFound
	}
	return parsed.String(), nil
}

// InMemoryRepository is used when no database is configured.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
	now     func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]*Record), now: time.Now}
}

func (r *InMemoryRepository) Create(ctx context.Context, rec *Record) (*Record, error) {
	id, err := normalizeID(rec.ID)
	if err != nil {
		return nil, err
	}
	out := *rec
	out.ID = id
	if out.Status == "" {
		out.Status = StatusReceived
	}
	now := r.now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[id]; ok {
		cp := *existing
		return &cp, nil
	}
	r.records[id] = &out
	cp := out
	return &cp, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	id, err := lookupID(id)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *InMemoryRepository) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	r.mu.RLock()
	out := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		cp := *rec
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	id, err := lookupID(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	now := r.now().UTC()
	rec.Status = status
	rec.UpdatedAt = now
	if status == StatusNotified {
		rec.NotifiedAt = &now
	}
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
