// Package delivery assigns orders to the agent serving the destination
// postal code and schedules the pickup and delivery window.
package delivery

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Duration is the fixed time from pickup to delivery, regardless of
// distance or order size.
const Duration = 30 * time.Minute

// ErrNoAgentAvailable is returned when no agent serves the postal code.
// Callers are expected to surface the served postal code roster alongside it.
var ErrNoAgentAvailable = errors.New("no delivery agent serves this postal code")

// Agent is a delivery person bound to exactly one postal code. The
// NextAvailableAt watermark marks the earliest time the agent is free for a
// new pickup; it only moves forward.
type Agent struct {
	ID              string
	FirstName       string
	LastName        string
	PostalCode      string
	NextAvailableAt time.Time
}

// FullName returns the agent's display name.
func (a Agent) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Repository defines lookups over the agent roster.
type Repository interface {
	// FindByPostalCode returns the agent serving the given normalized postal
	// code, or ErrNoAgentAvailable.
	FindByPostalCode(ctx context.Context, postalCode string) (*Agent, error)
	ListServedPostalCodes(ctx context.Context) ([]string, error)
}

// Assignment is a scheduled delivery window for one order.
type Assignment struct {
	AgentID    string
	PickupAt   time.Time
	DeliveryAt time.Time
}

// NormalizePostalCode strips all whitespace and uppercases the code, so
// "6222 rt" and "6222RT" address the same agent.
func NormalizePostalCode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// Scheduler computes delivery windows from the agent roster. Assign is a
// pure read: it never advances an agent's watermark. Only committing an
// order does that, so price previews and failed orders reserve no capacity.
type Scheduler struct {
	agents Repository
	now    func() time.Time
}

// NewScheduler creates a Scheduler over the given roster.
func NewScheduler(agents Repository) *Scheduler {
	return &Scheduler{agents: agents, now: time.Now}
}

// Assign finds the agent serving postalCode and computes the window:
// pickup at max(now, agent.NextAvailableAt), delivery a fixed Duration
// later. The postal code is normalized before lookup.
func (s *Scheduler) Assign(ctx context.Context, postalCode string) (*Assignment, error) {
	agent, err := s.agents.FindByPostalCode(ctx, NormalizePostalCode(postalCode))
	if err != nil {
		return nil, err
	}

	pickup := s.now()
	if agent.NextAvailableAt.After(pickup) {
		pickup = agent.NextAvailableAt
	}

	return &Assignment{
		AgentID:    agent.ID,
		PickupAt:   pickup,
		DeliveryAt: pickup.Add(Duration),
	}, nil
}
