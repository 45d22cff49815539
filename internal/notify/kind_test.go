package notify

import (
	"testing"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindForEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		eventType string
		want      Kind
		ok        bool
	}{
		{events.TypeTaskShared, KindTaskShared, true},
		{events.TypeCommentAdded, KindCommentAdded, true},
		{events.TypeTaskCompleted, KindTaskCompleted, true},
		{events.TypeTaskDueSoon, KindTaskDueSoon, true},
		{events.TypeFilesOrphaned, 0, false},
		{"something.else", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.eventType, func(t *testing.T) {
			t.Parallel()
			got, ok := KindForEvent(tc.eventType)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestKindFlagMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		set  func(p *domain.NotificationPreference)
	}{
		{KindTaskShared, func(p *domain.NotificationPreference) { p.TaskSharedWithMe = true }},
		{KindCommentAdded, func(p *domain.NotificationPreference) { p.CommentOnMyTask = true }},
		{KindTaskCompleted, func(p *domain.NotificationPreference) { p.TaskCompleted = true }},
		{KindTaskDueSoon, func(p *domain.NotificationPreference) { p.TaskDueSoon = true }},
	}

	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			t.Parallel()
			pref := &domain.NotificationPreference{}
			assert.False(t, tc.kind.Flag(pref))
			tc.set(pref)
			assert.True(t, tc.kind.Flag(pref))

			// Only the kind's own flag was set.
			for _, other := range Kinds {
				if other != tc.kind {
					assert.False(t, other.Flag(pref), "%s should not read %s's flag", other, tc.kind)
				}
			}
		})
	}
}

// TestShouldSendMatrix covers every combination of the three gates for
// every kind: exactly one combination sends.
func TestShouldSendMatrix(t *testing.T) {
	t.Parallel()

	for _, kind := range Kinds {
		sends := 0
		for _, verified := range []bool{false, true} {
			for _, master := range []bool{false, true} {
				for _, flag := range []bool{false, true} {
					pref := &domain.NotificationPreference{
						EmailVerified:    verified,
						EmailEnabled:     master,
						TaskSharedWithMe: flag,
						CommentOnMyTask:  flag,
						TaskCompleted:    flag,
						TaskDueSoon:      flag,
					}
					got := ShouldSend(pref, kind)
					assert.Equal(t, verified && master && flag, got,
						"kind=%s verified=%v master=%v flag=%v", kind, verified, master, flag)
					if got {
						sends++
					}
				}
			}
		}
		assert.Equal(t, 1, sends, "kind=%s", kind)
	}
}

func TestDecideOrder(t *testing.T) {
	t.Parallel()

	pref := &domain.NotificationPreference{}
	assert.Equal(t, SkipMaster, Decide(pref, KindTaskShared))

	pref.EmailEnabled = true
	assert.Equal(t, SkipFlag, Decide(pref, KindTaskShared))

	pref.TaskSharedWithMe = true
	assert.Equal(t, SkipUnverified, Decide(pref, KindTaskShared))

	pref.EmailVerified = true
	assert.Equal(t, SkipNone, Decide(pref, KindTaskShared))
}

func TestDefaultsDoNotSendBeforeVerification(t *testing.T) {
	t.Parallel()

	pref := domain.DefaultNotificationPreference(1)
	for _, kind := range Kinds {
		assert.False(t, ShouldSend(pref, kind), kind.String())
	}

	pref.EmailVerified = true
	assert.True(t, ShouldSend(pref, KindTaskShared))
	assert.True(t, ShouldSend(pref, KindCommentAdded))
	assert.False(t, ShouldSend(pref, KindTaskCompleted))
	assert.True(t, ShouldSend(pref, KindTaskDueSoon))
}

func TestRender(t *testing.T) {
	t.Parallel()

	payload := events.NotificationPayload{
		ActorID:       1,
		ActorUsername: "alice",
		RecipientID:   2,
		TaskID:        7,
		TaskTitle:     "Write <report>",
		Permission:    "edit",
		Comment:       "looks good",
	}

	subjects := map[Kind]string{
		KindTaskShared:    "Task Shared: Write <report>",
		KindCommentAdded:  "New Comment on: Write <report>",
		KindTaskCompleted: "Task Completed: Write <report>",
		KindTaskDueSoon:   "Task Due Soon: Write <report>",
	}

	for _, kind := range Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			t.Parallel()
			msg, err := Render(kind, "bob@example.com", payload)
			require.NoError(t, err)
			assert.Equal(t, "bob@example.com", msg.To)
			assert.Equal(t, subjects[kind], msg.Subject)
			assert.Contains(t, msg.Text, "alice")
			assert.Contains(t, msg.HTML, "alice")
			assert.Contains(t, msg.HTML, "Write &lt;report&gt;")
		})
	}

	msg, err := Render(KindCommentAdded, "bob@example.com", payload)
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "looks good")

	_, err = Render(Kind(99), "bob@example.com", payload)
	assert.Error(t, err)
}

func TestDirectMessages(t *testing.T) {
	t.Parallel()

	reset := PasswordResetMessage("a@example.com", "alice", "https://app.example.com/reset-password?token=abc")
	assert.Equal(t, "a@example.com", reset.To)
	assert.Contains(t, reset.Text, "https://app.example.com/reset-password?token=abc")
	assert.Contains(t, reset.HTML, "token=abc")

	verify := VerificationCodeMessage("a@example.com", "alice", "123456")
	assert.Contains(t, verify.Text, "123456")
	assert.Contains(t, verify.HTML, "<strong>123456</strong>")
}
