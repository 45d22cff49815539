package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/store"
)

type shareKey struct {
	taskID int64
	userID int64
}

type memState struct {
	seq      int64
	users    map[int64]domain.User
	tasks    map[int64]domain.Task
	shares   map[shareKey]domain.TaskShare
	comments map[int64]domain.TaskComment
	files    map[int64]domain.TaskFile
	activity []domain.ActivityLog
	prefs    map[int64]domain.NotificationPreference
}

func (s *memState) clone() *memState {
	c := &memState{
		seq:      s.seq,
		users:    make(map[int64]domain.User, len(s.users)),
		tasks:    make(map[int64]domain.Task, len(s.tasks)),
		shares:   make(map[shareKey]domain.TaskShare, len(s.shares)),
		comments: make(map[int64]domain.TaskComment, len(s.comments)),
		files:    make(map[int64]domain.TaskFile, len(s.files)),
		activity: append([]domain.ActivityLog(nil), s.activity...),
		prefs:    make(map[int64]domain.NotificationPreference, len(s.prefs)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	for k, v := range s.shares {
		c.shares[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	for k, v := range s.files {
		c.files[k] = v
	}
	for k, v := range s.prefs {
		c.prefs[k] = v
	}
	return c
}

// MemoryDB is an in-memory implementation of every store interface plus
// store.TxRunner. Writes inside RunInTx are rolled back when the function
// returns an error, and uniqueness and cascade rules follow the Postgres
// schema.
type MemoryDB struct {
	mu    sync.Mutex
	state *memState
	fail  map[string]error
	now   func() time.Time
}

var _ store.TxRunner = (*MemoryDB)(nil)

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		state: &memState{
			users:    map[int64]domain.User{},
			tasks:    map[int64]domain.Task{},
			shares:   map[shareKey]domain.TaskShare{},
			comments: map[int64]domain.TaskComment{},
			files:    map[int64]domain.TaskFile{},
			prefs:    map[int64]domain.NotificationPreference{},
		},
		fail: map[string]error{},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// FailOn makes the named operation return err until cleared with a nil err.
// Operation names are "<store>.<method>", e.g. "activity.Append".
func (m *MemoryDB) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

func (m *MemoryDB) failure(op string) error {
	return m.fail[op]
}

// RunInTx implements store.TxRunner. The tx passed to fn is nil; the
// in-memory stores ignore it.
func (m *MemoryDB) RunInTx(ctx context.Context, fn store.TxFn) error {
	m.mu.Lock()
	if err := m.failure("tx.Begin"); err != nil {
		m.mu.Unlock()
		return err
	}
	snapshot := m.state.clone()
	m.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemoryDB) nextID() int64 {
	m.state.seq++
	return m.state.seq
}

// Users returns the user store view.
func (m *MemoryDB) Users() store.UserStore { return &memUsers{m} }

// Tasks returns the task store view.
func (m *MemoryDB) Tasks() store.TaskStore { return &memTasks{m} }

// Shares returns the share store view.
func (m *MemoryDB) Shares() store.ShareStore { return &memShares{m} }

// Comments returns the comment store view.
func (m *MemoryDB) Comments() store.CommentStore { return &memComments{m} }

// Files returns the file store view.
func (m *MemoryDB) Files() store.FileStore { return &memFiles{m} }

// Activity returns the activity store view.
func (m *MemoryDB) Activity() store.ActivityStore { return &memActivity{m} }

// Preferences returns the preference store view.
func (m *MemoryDB) Preferences() store.PreferenceStore { return &memPrefs{m} }

// ActivityCount returns the number of stored activity entries.
func (m *MemoryDB) ActivityCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.activity)
}

// ---- users

type memUsers struct{ db *MemoryDB }

func (s *memUsers) WithTx(*sql.Tx) store.UserStore { return s }

func (s *memUsers) Create(_ context.Context, user *domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("users.Create"); err != nil {
		return err
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	for _, u := range s.db.state.users {
		if strings.EqualFold(u.Username, user.Username) {
			return store.ErrUsernameExists
		}
		if strings.EqualFold(u.Email, user.Email) {
			return store.ErrEmailExists
		}
	}
	user.ID = s.db.nextID()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.db.now()
	}
	s.db.state.users[user.ID] = *user
	return nil
}

func (s *memUsers) find(match func(domain.User) bool) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.state.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return s.find(func(u domain.User) bool { return u.ID == id })
}

func (s *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.find(func(u domain.User) bool { return u.Username == username })
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *memUsers) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	return s.find(func(u domain.User) bool {
		return u.PasswordResetToken != nil && *u.PasswordResetToken == token
	})
}

func (s *memUsers) Search(_ context.Context, query string, excludeID int64, limit int) ([]*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q := strings.ToLower(query)
	out := []*domain.User{}
	for _, u := range s.db.state.users {
		if u.ID == excludeID || !strings.Contains(strings.ToLower(u.Username), q) {
			continue
		}
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memUsers) Update(_ context.Context, user *domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("users.Update"); err != nil {
		return err
	}
	if _, ok := s.db.state.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	s.db.state.users[user.ID] = *user
	return nil
}

func (s *memUsers) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.state.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.db.state.users, id)
	delete(s.db.state.prefs, id)
	for tid, t := range s.db.state.tasks {
		if t.UserID == id {
			s.db.deleteTaskLocked(tid)
		}
	}
	return nil
}

// ---- tasks

type memTasks struct{ db *MemoryDB }

func (s *memTasks) WithTx(*sql.Tx) store.TaskStore { return s }

func copyTask(t domain.Task) *domain.Task {
	t.Tags = append([]string{}, t.Tags...)
	return &t
}

func (s *memTasks) Create(_ context.Context, task *domain.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("tasks.Create"); err != nil {
		return err
	}
	if _, ok := s.db.state.users[task.UserID]; !ok {
		return fmt.Errorf("%w: task owner", store.ErrInvalidEntity)
	}
	task.ID = s.db.nextID()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.db.now()
	}
	s.db.state.tasks[task.ID] = *copyTask(*task)
	return nil
}

func (s *memTasks) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("tasks.GetByID"); err != nil {
		return nil, err
	}
	t, ok := s.db.state.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(t), nil
}

func matchesFilter(t domain.Task, f domain.TaskFilter, today domain.Date) bool {
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, tag := range t.Tags {
			if tag == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		desc := ""
		if t.Description != nil {
			desc = *t.Description
		}
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(desc), q) {
			return false
		}
	}
	if f.Overdue && (t.Completed || t.DueDate == nil || !t.DueDate.Before(today)) {
		return false
	}
	return true
}

func taskLess(a, b *domain.Task, sortBy string) int {
	switch sortBy {
	case domain.SortByDueDate:
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		}
		return a.DueDate.Compare(b.DueDate.Time)
	case domain.SortByPriority:
		return a.Priority.Rank() - b.Priority.Rank()
	case domain.SortByTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

func (s *memTasks) ListByOwner(_ context.Context, ownerID int64, f domain.TaskFilter, today domain.Date) ([]*domain.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.Task{}
	for _, t := range s.db.state.tasks {
		if t.UserID == ownerID && matchesFilter(t, f, today) {
			out = append(out, copyTask(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := taskLess(out[i], out[j], f.SortBy)
		if f.SortDesc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	if f.Skip >= len(out) {
		return []*domain.Task{}, nil
	}
	out = out[f.Skip:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memTasks) ListSharedWith(_ context.Context, userID int64) ([]*domain.SharedTask, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.SharedTask{}
	for k, sh := range s.db.state.shares {
		if k.userID != userID {
			continue
		}
		t, ok := s.db.state.tasks[k.taskID]
		if !ok {
			continue
		}
		out = append(out, &domain.SharedTask{
			Task:          *copyTask(t),
			Permission:    sh.Permission,
			OwnerUsername: s.db.state.users[t.UserID].Username,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memTasks) Stats(_ context.Context, ownerID int64, today domain.Date) (*domain.TaskStats, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stats := &domain.TaskStats{ByPriority: map[domain.Priority]int{
		domain.PriorityLow: 0, domain.PriorityMedium: 0, domain.PriorityHigh: 0,
	}}
	for _, t := range s.db.state.tasks {
		if t.UserID != ownerID {
			continue
		}
		stats.Total++
		if t.Completed {
			stats.Completed++
		} else {
			stats.Incomplete++
			if t.DueDate != nil && t.DueDate.Before(today) {
				stats.Overdue++
			}
		}
		stats.ByPriority[t.Priority]++
	}
	return stats, nil
}

func (s *memTasks) Update(_ context.Context, task *domain.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("tasks.Update"); err != nil {
		return err
	}
	if _, ok := s.db.state.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	s.db.state.tasks[task.ID] = *copyTask(*task)
	return nil
}

func (s *memTasks) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("tasks.Delete"); err != nil {
		return err
	}
	if _, ok := s.db.state.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	s.db.deleteTaskLocked(id)
	return nil
}

// deleteTaskLocked removes a task and cascades to its children. Activity
// entries are kept.
func (m *MemoryDB) deleteTaskLocked(id int64) {
	delete(m.state.tasks, id)
	for k := range m.state.shares {
		if k.taskID == id {
			delete(m.state.shares, k)
		}
	}
	for cid, c := range m.state.comments {
		if c.TaskID == id {
			delete(m.state.comments, cid)
		}
	}
	for fid, f := range m.state.files {
		if f.TaskID == id {
			delete(m.state.files, fid)
		}
	}
}

// ---- shares

type memShares struct{ db *MemoryDB }

func (s *memShares) WithTx(*sql.Tx) store.ShareStore { return s }

func (s *memShares) Create(_ context.Context, share *domain.TaskShare) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("shares.Create"); err != nil {
		return err
	}
	k := shareKey{share.TaskID, share.SharedWithUserID}
	if _, ok := s.db.state.shares[k]; ok {
		return store.ErrShareExists
	}
	if _, ok := s.db.state.tasks[share.TaskID]; !ok {
		return fmt.Errorf("%w: share task", store.ErrInvalidEntity)
	}
	share.ID = s.db.nextID()
	s.db.state.shares[k] = *share
	return nil
}

func (s *memShares) Get(_ context.Context, taskID, userID int64) (*domain.TaskShare, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sh, ok := s.db.state.shares[shareKey{taskID, userID}]
	if !ok {
		return nil, store.ErrShareNotFound
	}
	sh.SharedWithUsername = s.db.state.users[userID].Username
	return &sh, nil
}

func (s *memShares) ListByTask(_ context.Context, taskID int64) ([]*domain.TaskShare, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.TaskShare{}
	for k, sh := range s.db.state.shares {
		if k.taskID != taskID {
			continue
		}
		sh := sh
		sh.SharedWithUsername = s.db.state.users[k.userID].Username
		out = append(out, &sh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memShares) UpdatePermission(_ context.Context, taskID, userID int64, permission domain.Permission) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	k := shareKey{taskID, userID}
	sh, ok := s.db.state.shares[k]
	if !ok {
		return store.ErrShareNotFound
	}
	sh.Permission = permission
	s.db.state.shares[k] = sh
	return nil
}

func (s *memShares) Delete(_ context.Context, taskID, userID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	k := shareKey{taskID, userID}
	if _, ok := s.db.state.shares[k]; !ok {
		return store.ErrShareNotFound
	}
	delete(s.db.state.shares, k)
	return nil
}

// ---- comments

type memComments struct{ db *MemoryDB }

func (s *memComments) WithTx(*sql.Tx) store.CommentStore { return s }

func (s *memComments) Create(_ context.Context, c *domain.TaskComment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("comments.Create"); err != nil {
		return err
	}
	if _, ok := s.db.state.tasks[c.TaskID]; !ok {
		return fmt.Errorf("%w: comment task", store.ErrInvalidEntity)
	}
	c.ID = s.db.nextID()
	s.db.state.comments[c.ID] = *c
	return nil
}

func (s *memComments) GetByID(_ context.Context, id int64) (*domain.TaskComment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.state.comments[id]
	if !ok {
		return nil, store.ErrCommentNotFound
	}
	c.Username = s.db.state.users[c.UserID].Username
	return &c, nil
}

func (s *memComments) ListByTask(_ context.Context, taskID int64) ([]*domain.TaskComment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.TaskComment{}
	for _, c := range s.db.state.comments {
		if c.TaskID != taskID {
			continue
		}
		c := c
		c.Username = s.db.state.users[c.UserID].Username
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memComments) Update(_ context.Context, c *domain.TaskComment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.state.comments[c.ID]; !ok {
		return store.ErrCommentNotFound
	}
	s.db.state.comments[c.ID] = *c
	return nil
}

func (s *memComments) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.state.comments[id]; !ok {
		return store.ErrCommentNotFound
	}
	delete(s.db.state.comments, id)
	return nil
}

// ---- files

type memFiles struct{ db *MemoryDB }

func (s *memFiles) WithTx(*sql.Tx) store.FileStore { return s }

func (s *memFiles) Create(_ context.Context, f *domain.TaskFile) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("files.Create"); err != nil {
		return err
	}
	for _, existing := range s.db.state.files {
		if existing.StoredFilename == f.StoredFilename {
			return store.ErrStoredFilenameExists
		}
	}
	if _, ok := s.db.state.tasks[f.TaskID]; !ok {
		return fmt.Errorf("%w: file task", store.ErrInvalidEntity)
	}
	f.ID = s.db.nextID()
	s.db.state.files[f.ID] = *f
	return nil
}

func (s *memFiles) GetByID(_ context.Context, id int64) (*domain.TaskFile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	f, ok := s.db.state.files[id]
	if !ok {
		return nil, store.ErrFileNotFound
	}
	return &f, nil
}

func (s *memFiles) ListByTask(_ context.Context, taskID int64) ([]*domain.TaskFile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.TaskFile{}
	for _, f := range s.db.state.files {
		if f.TaskID == taskID {
			f := f
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memFiles) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.state.files[id]; !ok {
		return store.ErrFileNotFound
	}
	delete(s.db.state.files, id)
	return nil
}

// ---- activity

type memActivity struct{ db *MemoryDB }

func (s *memActivity) WithTx(*sql.Tx) store.ActivityStore { return s }

func (s *memActivity) Append(_ context.Context, entry *domain.ActivityLog) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("activity.Append"); err != nil {
		return err
	}
	entry.ID = s.db.nextID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.db.now()
	}
	e := *entry
	e.Details = make(map[string]any, len(entry.Details))
	for k, v := range entry.Details {
		e.Details[k] = v
	}
	s.db.state.activity = append(s.db.state.activity, e)
	return nil
}

func (s *memActivity) withUsername(e domain.ActivityLog) *domain.ActivityLog {
	e.Username = s.db.state.users[e.UserID].Username
	return &e
}

func (s *memActivity) ListByActor(_ context.Context, actorID int64, f domain.ActivityFilter) ([]*domain.ActivityLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.ActivityLog{}
	for i := len(s.db.state.activity) - 1; i >= 0; i-- {
		e := s.db.state.activity[i]
		if e.UserID != actorID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.ResourceType != "" && e.ResourceType != f.ResourceType {
			continue
		}
		out = append(out, s.withUsername(e))
	}
	if f.Offset >= len(out) {
		return []*domain.ActivityLog{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memActivity) ListForTask(_ context.Context, taskID int64) ([]*domain.ActivityLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*domain.ActivityLog{}
	want := fmt.Sprint(taskID)
	for _, e := range s.db.state.activity {
		switch e.ResourceType {
		case domain.ResourceTask:
			if e.ResourceID != taskID {
				continue
			}
		default:
			if fmt.Sprint(e.Details["task_id"]) != want {
				continue
			}
		}
		out = append(out, s.withUsername(e))
	}
	return out, nil
}

func (s *memActivity) StatsByActor(_ context.Context, actorID int64) (*domain.ActivityStats, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stats := &domain.ActivityStats{ByAction: map[string]int{}, ByResource: map[string]int{}}
	for _, e := range s.db.state.activity {
		if e.UserID != actorID {
			continue
		}
		stats.TotalActivities++
		stats.ByAction[string(e.Action)]++
		stats.ByResource[string(e.ResourceType)]++
	}
	return stats, nil
}

// ---- preferences

type memPrefs struct{ db *MemoryDB }

func (s *memPrefs) WithTx(*sql.Tx) store.PreferenceStore { return s }

func (s *memPrefs) Get(_ context.Context, userID int64) (*domain.NotificationPreference, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("preferences.Get"); err != nil {
		return nil, err
	}
	p, ok := s.db.state.prefs[userID]
	if !ok {
		return nil, store.ErrPreferenceNotFound
	}
	return &p, nil
}

func (s *memPrefs) Create(_ context.Context, pref *domain.NotificationPreference) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failure("preferences.Create"); err != nil {
		return err
	}
	if _, ok := s.db.state.prefs[pref.UserID]; ok {
		return store.ErrDuplicate
	}
	s.db.state.prefs[pref.UserID] = *pref
	return nil
}

func (s *memPrefs) Update(_ context.Context, pref *domain.NotificationPreference) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.state.prefs[pref.UserID]; !ok {
		return store.ErrPreferenceNotFound
	}
	s.db.state.prefs[pref.UserID] = *pref
	return nil
}
