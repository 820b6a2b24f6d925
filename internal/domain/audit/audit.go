package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names what the actor attempted through the portal.
type Action string

const (
	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionToggle         Action = "toggle"
	ActionPostPoints     Action = "post_points"
	ActionUpload         Action = "upload"
	ActionExport         Action = "export"
	ActionChangePassword Action = "change_password"
)

// Outcome is whether the backend accepted the action.
type Outcome string

const (
	OutcomeOK     Outcome = "OK"
	OutcomeFailed Outcome = "FAILED"
)

// Resource types
const (
	ResourceMember    = "member"
	ResourcePointType = "point_type"
	ResourcePointLog  = "point_log"
	ResourceAdmin     = "admin"
	ResourceItem      = "item"
	ResourceSession   = "session"
)

// Event is a single portal audit entry. The backend keeps its own ledger;
// these entries record who used the portal to do what.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	ActorClass   string    `json:"actor_class"`
	ActorID      string    `json:"actor_id"`
	ActorName    string    `json:"actor_name"`
	Action       Action    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Outcome      Outcome   `json:"outcome"`
	Message      string    `json:"message"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
}

// NewEvent creates a successful event stamped now.
// PRE: actorClass and action are non-empty
// POST: Returns an Event with a fresh UUID and OutcomeOK
func NewEvent(actorClass, actorID, actorName string, action Action, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Timestamp:  now,
		ActorClass: actorClass,
		ActorID:    actorID,
		ActorName:  actorName,
		Action:     action,
		Outcome:    OutcomeOK,
	}
}

// WithResource sets resource information.
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithFailure marks the event failed with the backend's message.
// PRE: err is non-nil
// POST: Outcome is OutcomeFailed and Message is err's text
func (e Event) WithFailure(err error) Event {
	e.Outcome = OutcomeFailed
	e.Message = err.Error()
	return e
}

// WithMessage sets a free-form description.
func (e Event) WithMessage(msg string) Event {
	e.Message = msg
	return e
}

// WithRequest sets IP address and user agent.
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}
