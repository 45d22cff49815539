package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/faros-api/internal/config"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/mocks"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/platform/metrics"
	"github.com/phrazzld/faros-api/internal/platform/storage"
	"github.com/phrazzld/faros-api/internal/service"
)

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

// testEnv wires every service over one MemoryDB.
type testEnv struct {
	db      *mocks.MemoryDB
	emitter *mocks.RecordingEmitter
	cache   *mocks.MemoryCache
	metrics *metrics.Metrics
	fs      afero.Fs
	blobs   *storage.FSStore
	sender  *mocks.RecordingSender
	now     time.Time

	tasks    *service.TaskService
	shares   *service.ShareService
	comments *service.CommentService
	files    *service.FileService
	activity *service.ActivityService
	users    *service.UserService
	notify   *service.NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, _ := logger.GetTestLogger(t)
	env := &testEnv{
		db:      mocks.NewMemoryDB(),
		emitter: &mocks.RecordingEmitter{},
		cache:   mocks.NewMemoryCache(),
		metrics: metrics.New(),
		fs:      afero.NewMemMapFs(),
		sender:  &mocks.RecordingSender{},
		now:     fixedNow,
	}

	blobs, err := storage.NewFSStore(env.fs, "/uploads", log)
	require.NoError(t, err)
	env.blobs = blobs

	deps := service.Deps{
		Tx:          env.db,
		Users:       env.db.Users(),
		Tasks:       env.db.Tasks(),
		Shares:      env.db.Shares(),
		Comments:    env.db.Comments(),
		Files:       env.db.Files(),
		Activity:    env.db.Activity(),
		Preferences: env.db.Preferences(),
		Emitter:     env.emitter,
		Cache:       env.cache,
		Metrics:     env.metrics,
		Logger:      log,
		Clock:       func() time.Time { return env.now },
	}

	env.tasks = service.NewTaskService(deps)
	env.shares = service.NewShareService(deps)
	env.comments = service.NewCommentService(deps)
	env.files = service.NewFileService(deps, blobs, config.StorageConfig{
		UploadDir:         "/uploads",
		MaxUploadSize:     1024,
		AllowedExtensions: []string{".txt", ".pdf", ".png"},
	})
	env.activity = service.NewActivityService(deps)
	env.users = service.NewUserService(deps, &mocks.MockJWTService{Token: "signed-token"},
		&mocks.MockPasswordHasher{}, env.sender, "http://localhost:3000/")
	env.notify = service.NewNotificationService(deps, env.sender)
	return env
}

// register creates a user through UserService and returns it as an Actor.
func (e *testEnv) register(t *testing.T, username string) service.Actor {
	t.Helper()
	user, err := e.users.Register(context.Background(), username, username+"@example.com", "password123")
	require.NoError(t, err)
	return service.Actor{ID: user.ID, Username: user.Username}
}

func (e *testEnv) createTask(t *testing.T, owner service.Actor, title string) *domain.Task {
	t.Helper()
	task, err := e.tasks.Create(context.Background(), owner, service.CreateTaskInput{Title: title})
	require.NoError(t, err)
	return task
}

func (e *testEnv) share(t *testing.T, owner service.Actor, taskID int64, grantee string, p domain.Permission) {
	t.Helper()
	_, err := e.shares.Share(context.Background(), owner, taskID, grantee, p)
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }
