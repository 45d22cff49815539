//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/platform/postgres"
	"github.com/phrazzld/faros-api/internal/store"
	"github.com/phrazzld/faros-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB is shared by every test in this file. Each test runs inside a
// transaction that is rolled back on cleanup.
var testDB *sql.DB

func TestMain(m *testing.M) {
	var err error
	testDB, err = testdb.Setup(context.Background())
	if errors.Is(err, testdb.ErrNotConfigured) {
		fmt.Println("FAROS_TEST_DATABASE_URL not set, skipping postgres integration tests")
		os.Exit(0)
	}
	if err != nil {
		fmt.Printf("Failed to prepare test database: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = testDB.Close()
	os.Exit(code)
}

func withTx(t *testing.T) *sql.Tx {
	t.Helper()
	return testdb.BeginTx(t, testDB)
}

func createUser(t *testing.T, tx *sql.Tx, name string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(name, name+"@example.com", "password123")
	require.NoError(t, err)
	u.HashedPassword = "$2a$04$integrationhash"
	require.NoError(t, postgres.NewPostgresUserStore(tx, nil).Create(context.Background(), u))
	return u
}

func createTask(t *testing.T, tx *sql.Tx, owner int64, title string, priority domain.Priority, due *domain.Date, tags ...string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(owner, title, nil, priority, due, tags)
	require.NoError(t, err)
	require.NoError(t, postgres.NewPostgresTaskStore(tx, nil).Create(context.Background(), task))
	return task
}

func TestUserStore_Integration(t *testing.T) {
	ctx := context.Background()
	tx := withTx(t)
	users := postgres.NewPostgresUserStore(tx, nil)

	alice := createUser(t, tx, "alice_it")
	createUser(t, tx, "alina_it")
	createUser(t, tx, "bob_it")

	got, err := users.GetByEmail(ctx, "alice_it@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	dup, err := domain.NewUser("alice_it", "other@example.com", "password123")
	require.NoError(t, err)
	dup.HashedPassword = "x"
	err = testdb.Savepoint(t, tx, func() error { return users.Create(ctx, dup) })
	assert.ErrorIs(t, err, store.ErrUsernameExists)

	found, err := users.Search(ctx, "ali", alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alina_it", found[0].Username)

	token := uuid.NewString()
	expires := time.Now().Add(time.Hour).UTC()
	alice.PasswordResetToken = &token
	alice.PasswordResetExpires = &expires
	require.NoError(t, users.Update(ctx, alice))

	byToken, err := users.GetByResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byToken.ID)
}

func TestTaskStore_Integration(t *testing.T) {
	ctx := context.Background()
	tx := withTx(t)
	tasks := postgres.NewPostgresTaskStore(tx, nil)

	owner := createUser(t, tx, "owner_it")
	today := domain.DateOf(time.Now())
	yesterday := domain.DateOf(time.Now().AddDate(0, 0, -1))

	late := createTask(t, tx, owner.ID, "Late report", domain.PriorityHigh, &yesterday, "work")
	createTask(t, tx, owner.ID, "Groceries", domain.PriorityLow, nil, "home", "errands")
	createTask(t, tx, owner.ID, "Plan trip", domain.PriorityMedium, nil)

	all, err := tasks.ListByOwner(ctx, owner.ID, domain.TaskFilter{Limit: 100}, today)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	overdue, err := tasks.ListByOwner(ctx, owner.ID, domain.TaskFilter{Overdue: true, Limit: 100}, today)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)

	tagged, err := tasks.ListByOwner(ctx, owner.ID, domain.TaskFilter{Tag: "home", Limit: 100}, today)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, []string{"home", "errands"}, tagged[0].Tags)

	byPriority, err := tasks.ListByOwner(ctx, owner.ID,
		domain.TaskFilter{SortBy: domain.SortByPriority, SortDesc: true, Limit: 100}, today)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, byPriority[0].Priority)
	assert.Equal(t, domain.PriorityLow, byPriority[2].Priority)

	stats, err := tasks.Stats(ctx, owner.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Overdue)

	done := true
	_, err = late.Apply(domain.TaskPatch{Completed: &done})
	require.NoError(t, err)
	require.NoError(t, tasks.Update(ctx, late))

	reloaded, err := tasks.GetByID(ctx, late.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Completed)
	require.NotNil(t, reloaded.DueDate)
	assert.Equal(t, yesterday.String(), reloaded.DueDate.String())
}

func TestShareStore_Integration(t *testing.T) {
	ctx := context.Background()
	tx := withTx(t)
	shares := postgres.NewPostgresShareStore(tx, nil)
	tasks := postgres.NewPostgresTaskStore(tx, nil)

	owner := createUser(t, tx, "sharer_it")
	grantee := createUser(t, tx, "grantee_it")
	task := createTask(t, tx, owner.ID, "Shared", domain.PriorityMedium, nil)

	share, err := domain.NewTaskShare(task.ID, grantee.ID, owner.ID, domain.PermissionView)
	require.NoError(t, err)
	require.NoError(t, shares.Create(ctx, share))

	again, err := domain.NewTaskShare(task.ID, grantee.ID, owner.ID, domain.PermissionEdit)
	require.NoError(t, err)
	err = testdb.Savepoint(t, tx, func() error { return shares.Create(ctx, again) })
	assert.ErrorIs(t, err, store.ErrShareExists)

	require.NoError(t, shares.UpdatePermission(ctx, task.ID, grantee.ID, domain.PermissionEdit))
	got, err := shares.Get(ctx, task.ID, grantee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionEdit, got.Permission)
	assert.Equal(t, "grantee_it", got.SharedWithUsername)

	shared, err := tasks.ListSharedWith(ctx, grantee.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "sharer_it", shared[0].OwnerUsername)

	require.NoError(t, shares.Delete(ctx, task.ID, grantee.ID))
	assert.ErrorIs(t, shares.Delete(ctx, task.ID, grantee.ID), store.ErrShareNotFound)
}

func TestActivityStore_Integration(t *testing.T) {
	ctx := context.Background()
	tx := withTx(t)
	activity := postgres.NewPostgresActivityStore(tx, nil)

	actor := createUser(t, tx, "actor_it")
	task := createTask(t, tx, actor.ID, "Audited", domain.PriorityMedium, nil)

	entries := []*domain.ActivityLog{
		domain.NewActivityLog(actor.ID, domain.ActionCreated, domain.ResourceTask, task.ID, task.Snapshot()),
		domain.NewActivityLog(actor.ID, domain.ActionCreated, domain.ResourceComment, 500, map[string]any{"task_id": task.ID}),
		domain.NewActivityLog(actor.ID, domain.ActionCreated, domain.ResourceComment, 501, map[string]any{"task_id": task.ID + 1}),
	}
	for _, e := range entries {
		require.NoError(t, activity.Append(ctx, e))
	}

	timeline, err := activity.ListForTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, domain.ResourceTask, timeline[0].ResourceType)
	assert.Equal(t, int64(500), timeline[1].ResourceID)

	mine, err := activity.ListByActor(ctx, actor.ID, domain.ActivityFilter{ResourceType: domain.ResourceComment, Limit: 10})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Greater(t, mine[0].ID, mine[1].ID)

	stats, err := activity.StatsByActor(ctx, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalActivities)
	assert.Equal(t, 2, stats.ByResource["comment"])
}

func TestPreferenceStore_Integration(t *testing.T) {
	ctx := context.Background()
	tx := withTx(t)
	prefs := postgres.NewPostgresPreferenceStore(tx, nil)

	user := createUser(t, tx, "prefs_it")
	_, err := prefs.Get(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrPreferenceNotFound)

	p := domain.DefaultNotificationPreference(user.ID)
	require.NoError(t, prefs.Create(ctx, p))

	off := false
	p.Apply(domain.PreferencePatch{CommentOnMyTask: &off})
	require.NoError(t, prefs.Update(ctx, p))

	got, err := prefs.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.CommentOnMyTask)
	assert.True(t, got.TaskSharedWithMe)
	assert.NotNil(t, got.UpdatedAt)
}

func TestCommentAndFileStores_Integration(t *testing.T) {
	ctx := context.Background()
	tx := withTx(t)
	comments := postgres.NewPostgresCommentStore(tx, nil)
	files := postgres.NewPostgresFileStore(tx, nil)

	user := createUser(t, tx, "commenter_it")
	task := createTask(t, tx, user.ID, "Discussed", domain.PriorityMedium, nil)

	c, err := domain.NewTaskComment(task.ID, user.ID, "  first  ")
	require.NoError(t, err)
	require.NoError(t, comments.Create(ctx, c))

	listed, err := comments.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "first", listed[0].Content)
	assert.Equal(t, "commenter_it", listed[0].Username)

	f := &domain.TaskFile{
		TaskID:           task.ID,
		OriginalFilename: "notes.txt",
		StoredFilename:   uuid.NewString() + ".txt",
		FileSize:         12,
		ContentType:      "text/plain",
		UploadedAt:       time.Now().UTC(),
	}
	require.NoError(t, files.Create(ctx, f))

	dup := *f
	err = testdb.Savepoint(t, tx, func() error { return files.Create(ctx, &dup) })
	assert.ErrorIs(t, err, store.ErrStoredFilenameExists)
}
