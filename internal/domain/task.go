package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Priority is the urgency of a task.
type Priority string

// Valid task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task field limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxTagLength         = 50
)

// Task validation errors
var (
	ErrEmptyTitle         = fmt.Errorf("%w: title cannot be empty", ErrValidation)
	ErrTitleTooLong       = fmt.Errorf("%w: title must be at most 200 characters long", ErrValidation)
	ErrDescriptionTooLong = fmt.Errorf("%w: description must be at most 1000 characters long", ErrValidation)
	ErrInvalidTag         = fmt.Errorf("%w: tags must be 1-50 characters long", ErrValidation)
	ErrEmptyOwner         = fmt.Errorf("%w: task owner cannot be empty", ErrValidation)
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities from low (1) to high (3).
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	DueDate     *Date     `json:"due_date"`
	Tags        []string  `json:"tags"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTask creates a task owned by userID with defaults applied.
func NewTask(userID int64, title string, description *string, priority Priority, dueDate *Date, tags []string) (*Task, error) {
	if priority == "" {
		priority = PriorityMedium
	}
	if tags == nil {
		tags = []string{}
	}

	task := &Task{
		Title:       strings.TrimSpace(title),
		Description: description,
		Priority:    priority,
		DueDate:     dueDate,
		Tags:        NormalizeTags(tags),
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks the task invariants.
func (t *Task) Validate() error {
	if t.UserID == 0 {
		return ErrEmptyOwner
	}
	if err := ValidateTitle(t.Title); err != nil {
		return err
	}
	if t.Description != nil && utf8.RuneCountInString(*t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	for _, tag := range t.Tags {
		if err := ValidateTag(tag); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTitle checks title bounds.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// ValidateTag checks a single tag.
func ValidateTag(tag string) error {
	if tag == "" || utf8.RuneCountInString(tag) > MaxTagLength {
		return ErrInvalidTag
	}
	return nil
}

// NormalizeTags trims tags and drops empties and duplicates, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// IsOverdue reports whether the task has a due date before today and is still open.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(DateOf(now))
}

// Snapshot returns the task's field values keyed by their JSON names.
// It is the payload recorded in activity logs.
func (t *Task) Snapshot() map[string]any {
	return map[string]any{
		"id":          t.ID,
		"title":       t.Title,
		"description": derefString(t.Description),
		"completed":   t.Completed,
		"priority":    string(t.Priority),
		"due_date":    t.DueDate.StringOrNil(),
		"tags":        append([]string{}, t.Tags...),
		"user_id":     t.UserID,
		"created_at":  t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// TaskPatch carries a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *Priority
	DueDate     *Date
	ClearDue    bool
	Tags        *[]string
}

// IsEmpty reports whether the patch sets no fields.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Completed == nil &&
		p.Priority == nil &&
		p.DueDate == nil &&
		!p.ClearDue &&
		p.Tags == nil
}

// TaskChange describes the effect of applying a TaskPatch.
type TaskChange struct {
	ChangedFields []string
	OldValues     map[string]any
	NewValues     map[string]any
}

// Details renders the change as an activity log payload.
func (c TaskChange) Details() map[string]any {
	fields := c.ChangedFields
	if fields == nil {
		fields = []string{}
	}
	return map[string]any{
		"changed_fields": fields,
		"old_values":     c.OldValues,
		"new_values":     c.NewValues,
	}
}

// Apply validates and applies the patch to t, returning the recorded change.
// t is left untouched when validation fails.
func (t *Task) Apply(p TaskPatch) (TaskChange, error) {
	updated := *t
	updated.Tags = append([]string{}, t.Tags...)

	if p.Title != nil {
		updated.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		desc := *p.Description
		updated.Description = &desc
	}
	if p.Completed != nil {
		updated.Completed = *p.Completed
	}
	if p.Priority != nil {
		updated.Priority = *p.Priority
	}
	if p.ClearDue {
		updated.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		updated.DueDate = &due
	}
	if p.Tags != nil {
		updated.Tags = NormalizeTags(*p.Tags)
	}

	if err := updated.Validate(); err != nil {
		return TaskChange{}, err
	}

	change := diffTasks(t, &updated)
	*t = updated
	return change, nil
}

// taskFields lists the patchable fields in the order they are reported.
var taskFields = []struct {
	name  string
	equal func(a, b *Task) bool
}{
	{"title", func(a, b *Task) bool { return a.Title == b.Title }},
	{"description", func(a, b *Task) bool { return equalPtr(a.Description, b.Description) }},
	{"completed", func(a, b *Task) bool { return a.Completed == b.Completed }},
	{"priority", func(a, b *Task) bool { return a.Priority == b.Priority }},
	{"due_date", func(a, b *Task) bool {
		if a.DueDate == nil || b.DueDate == nil {
			return a.DueDate == nil && b.DueDate == nil
		}
		return a.DueDate.Equal(b.DueDate.Time)
	}},
	{"tags", func(a, b *Task) bool { return slices.Equal(a.Tags, b.Tags) }},
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func diffTasks(before, after *Task) TaskChange {
	change := TaskChange{
		ChangedFields: []string{},
		OldValues:     map[string]any{},
		NewValues:     map[string]any{},
	}
	old := before.Snapshot()
	cur := after.Snapshot()

	for _, f := range taskFields {
		if f.equal(before, after) {
			continue
		}
		change.ChangedFields = append(change.ChangedFields, f.name)
		change.OldValues[f.name] = old[f.name]
		change.NewValues[f.name] = cur[f.name]
	}
	return change
}

// TaskFilter narrows a task listing.
type TaskFilter struct {
	Completed *bool
	Priority  *Priority
	Tag       string
	Search    string
	Overdue   bool
	SortBy    string
	SortDesc  bool
	Skip      int
	Limit     int
}

// Sortable task columns.
const (
	SortByCreatedAt = "created_at"
	SortByDueDate   = "due_date"
	SortByPriority  = "priority"
	SortByTitle     = "title"
)

// ValidSortField reports whether field can be used for ordering.
func ValidSortField(field string) bool {
	switch field {
	case SortByCreatedAt, SortByDueDate, SortByPriority, SortByTitle:
		return true
	}
	return false
}

// TaskStats summarises a user's own tasks.
type TaskStats struct {
	Total      int              `json:"total"`
	Completed  int              `json:"completed"`
	Incomplete int              `json:"incomplete"`
	Overdue    int              `json:"overdue"`
	ByPriority map[Priority]int `json:"by_priority"`
}

// SharedTask is a task seen from a grantee's perspective.
type SharedTask struct {
	Task
	Permission    Permission `json:"permission"`
	OwnerUsername string     `json:"owner_username"`
}

func derefString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
