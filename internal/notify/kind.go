// Package notify decides whether a domain event becomes an email and sends
// it. Every notification kind has an explicit recipient rule, preference
// flag and template; an unknown event type is never mailed.
package notify

import (
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/events"
)

// Kind is the closed set of notification kinds.
type Kind int

// Notification kinds.
const (
	KindTaskShared Kind = iota + 1
	KindCommentAdded
	KindTaskCompleted
	KindTaskDueSoon
)

// Kinds lists every kind, in declaration order.
var Kinds = []Kind{KindTaskShared, KindCommentAdded, KindTaskCompleted, KindTaskDueSoon}

// String returns the kind's metric and log label.
func (k Kind) String() string {
	switch k {
	case KindTaskShared:
		return "task_shared"
	case KindCommentAdded:
		return "comment_added"
	case KindTaskCompleted:
		return "task_completed"
	case KindTaskDueSoon:
		return "task_due_soon"
	}
	return "unknown"
}

// KindForEvent maps an event type to its notification kind.
func KindForEvent(eventType string) (Kind, bool) {
	switch eventType {
	case events.TypeTaskShared:
		return KindTaskShared, true
	case events.TypeCommentAdded:
		return KindCommentAdded, true
	case events.TypeTaskCompleted:
		return KindTaskCompleted, true
	case events.TypeTaskDueSoon:
		return KindTaskDueSoon, true
	}
	return 0, false
}

// Flag reports the preference switch that gates k.
func (k Kind) Flag(pref *domain.NotificationPreference) bool {
	switch k {
	case KindTaskShared:
		return pref.TaskSharedWithMe
	case KindCommentAdded:
		return pref.CommentOnMyTask
	case KindTaskCompleted:
		return pref.TaskCompleted
	case KindTaskDueSoon:
		return pref.TaskDueSoon
	}
	return false
}

// SkipSelf reports whether k is suppressed when the actor is also the
// recipient. A user commenting on or completing their own task is not
// told about it.
func (k Kind) SkipSelf() bool {
	return k == KindCommentAdded || k == KindTaskCompleted
}

// SkipReason explains why a notification was not sent.
type SkipReason string

// Skip reasons, checked in this order.
const (
	SkipNone       SkipReason = ""
	SkipMaster     SkipReason = "email_disabled"
	SkipFlag       SkipReason = "kind_disabled"
	SkipUnverified SkipReason = "email_unverified"
)

// Decide applies the master switch, the kind's flag and the verified
// check, in that order.
func Decide(pref *domain.NotificationPreference, k Kind) SkipReason {
	switch {
	case !pref.EmailEnabled:
		return SkipMaster
	case !k.Flag(pref):
		return SkipFlag
	case !pref.EmailVerified:
		return SkipUnverified
	}
	return SkipNone
}

// ShouldSend reports whether pref allows an email of kind k.
func ShouldSend(pref *domain.NotificationPreference, k Kind) bool {
	return Decide(pref, k) == SkipNone
}
