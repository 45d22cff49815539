package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	// TypeTaskShared is emitted when a task is shared with a user.
	TypeTaskShared = "task.shared"
	// TypeCommentAdded is emitted when a comment is created.
	TypeCommentAdded = "comment.added"
	// TypeTaskCompleted is emitted when a task moves from open to completed.
	TypeTaskCompleted = "task.completed"
	// TypeTaskDueSoon is reserved for a due-date reminder.
	TypeTaskDueSoon = "task.due_soon"
	// TypeFilesOrphaned is emitted when attachment rows are gone and their
	// blobs must be removed.
	TypeFilesOrphaned = "files.orphaned"
)

// Event is a domain event with a JSON payload.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NotificationPayload describes a user-facing change that may trigger an email.
type NotificationPayload struct {
	ActorID       int64  `json:"actor_id"`
	ActorUsername string `json:"actor_username"`
	RecipientID   int64  `json:"recipient_id"`
	TaskID        int64  `json:"task_id"`
	TaskTitle     string `json:"task_title"`
	Permission    string `json:"permission,omitempty"`
	Comment       string `json:"comment,omitempty"`
}

// FilesOrphanedPayload lists stored blobs whose metadata rows were deleted.
type FilesOrphanedPayload struct {
	TaskID          int64    `json:"task_id"`
	StoredFilenames []string `json:"stored_filenames"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}
