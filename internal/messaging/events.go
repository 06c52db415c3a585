package messaging

import (
	"fmt"
	"time"
)

// Event routing keys as constants
const (
	EventPatientCreated = "patient.created"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// PatientCreatedEvent represents a patient creation event
type PatientCreatedEvent struct {
	BaseEvent
	Data PatientCreatedData `json:"data"`
}

// PatientCreatedData is the snapshot taken at creation time. It is emitted at
// most once per creation that reaches the publish step.
type PatientCreatedData struct {
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     fmt.Sprintf("%d", time.Now().UnixNano()),
		Timestamp:   time.Now().UTC(), // Explicitly set to UTC
		ServiceName: "patient-service",
	}
}

// NewPatientCreatedEvent builds the event payload for a freshly created patient.
func NewPatientCreatedEvent(patientID, name, email string, createdAt time.Time) PatientCreatedEvent {
	return PatientCreatedEvent{
		BaseEvent: NewBaseEvent(EventPatientCreated),
		Data: PatientCreatedData{
			PatientID: patientID,
			Name:      name,
			Email:     email,
			CreatedAt: createdAt,
		},
	}
}
