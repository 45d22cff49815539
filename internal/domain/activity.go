package domain

import "time"

// Action names the kind of change recorded in an activity log.
type Action string

// Recorded actions.
const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionShared   Action = "shared"
	ActionUnshared Action = "unshared"
	ActionUploaded Action = "uploaded"
)

// ResourceType names the kind of entity an activity log refers to.
type ResourceType string

// Resource types.
const (
	ResourceTask    ResourceType = "task"
	ResourceComment ResourceType = "comment"
	ResourceFile    ResourceType = "file"
	ResourceShare   ResourceType = "share"
)

// ActivityLog is an append-only audit record of a mutation.
type ActivityLog struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"user_id"`
	Username     string         `json:"username"`
	Action       Action         `json:"action"`
	ResourceType ResourceType   `json:"resource_type"`
	ResourceID   int64          `json:"resource_id"`
	Details      map[string]any `json:"details"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewActivityLog builds a log entry attributed to actorID.
func NewActivityLog(actorID int64, action Action, resourceType ResourceType, resourceID int64, details map[string]any) *ActivityLog {
	if details == nil {
		details = map[string]any{}
	}
	return &ActivityLog{
		UserID:       actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    time.Now().UTC(),
	}
}

// ActivityFilter narrows an actor's activity listing.
type ActivityFilter struct {
	Action       Action
	ResourceType ResourceType
	Limit        int
	Offset       int
}

// ActivityStats summarises an actor's activity.
type ActivityStats struct {
	TotalActivities int            `json:"total_activities"`
	ByAction        map[string]int `json:"by_action"`
	ByResource      map[string]int `json:"by_resource"`
}
