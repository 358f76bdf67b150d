package infrastructure

import (
	"fmt"

	"lbclottery/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

var subjectsByEventType = map[events.EventType]string{
	events.EventTypeTicketsPurchased:    "lottery.tickets.purchased",
	events.EventTypeAllFundsWithdrawn:   "lottery.funds.withdrawn",
	events.EventTypeLotteryPaused:       "lottery.state.paused",
	events.EventTypeLotteryResumed:      "lottery.state.resumed",
	events.EventTypeLotteryReset:        "lottery.round.reset",
	events.EventTypeLedgerConfigChanged: "lottery.config.changed",
	events.EventTypeRoundEnded:          "lottery.round.ended",
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByEventType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("lottery.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByEventType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"lottery.tickets.purchased",
		"lottery.funds.withdrawn",
		"lottery.state.paused",
		"lottery.state.resumed",
		"lottery.round.reset",
		"lottery.config.changed",
		"lottery.round.ended",
		"lottery.unknown.*",
	}
}
