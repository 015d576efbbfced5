package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liftly.app/liftly/internal/model"
	notifRepo "liftly.app/liftly/internal/modules/notification/repository"
	"liftly.app/liftly/internal/testutil"
	"liftly.app/liftly/pkg/push"
)

// failingRepo rejects writes for one recipient and delegates the rest.
type failingRepo struct {
	notifRepo.NotificationRepository
	failFor uuid.UUID
}

func (r *failingRepo) Create(n *model.Notification) error {
	if n.RecipientID == r.failFor {
		return errors.New("constraint violation")
	}
	return r.NotificationRepository.Create(n)
}

// failingDeliverer always errors; stored rows must survive it.
type failingDeliverer struct{}

func (failingDeliverer) Deliver(ctx context.Context, userID uuid.UUID, msg push.Message) error {
	return errors.New("push endpoint gone")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))

	long := strings.Repeat("a", 200)
	got := Preview(long)
	assert.Len(t, got, 83)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestPreviewCutsOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("💪", 100)
	got := Preview(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("💪", 80)+"...", got)
}

func TestNotifyBuildsMessageFromTemplate(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := notifRepo.NewNotificationRepository(db)
	svc := NewNotificationService(repo, nil, nil)

	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")
	post := &model.Post{ID: uuid.New(), Body: "heavy triples tonight"}

	require.NoError(t, svc.Notify(context.Background(), bob.ID, model.NotifMention, alice, post))

	got, err := repo.GetByRecipientID(bob.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.NotifMention, got[0].Type)
	assert.Equal(t, "@alice mentioned you: heavy triples tonight", got[0].Message)
	require.NotNil(t, got[0].PostID)
	assert.Equal(t, post.ID, *got[0].PostID)
}

func TestNotifyRejectsUnknownType(t *testing.T) {
	svc := NewNotificationService(nil, nil, nil)
	actor := &model.User{ID: uuid.New(), Handle: "alice"}

	err := svc.Notify(context.Background(), uuid.New(), "poke", actor, nil)
	assert.Error(t, err)
}

func TestNotifySurvivesPushFailure(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := notifRepo.NewNotificationRepository(db)
	svc := NewNotificationService(repo, nil, failingDeliverer{})

	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")

	require.NoError(t, svc.Notify(context.Background(), bob.ID, model.NotifFollow, alice, nil))

	got, err := repo.GetByRecipientID(bob.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1, "the stored record outlives the failed push")
}

func TestFanoutIsolatesRecipientFailures(t *testing.T) {
	db := testutil.OpenDB(t)
	base := notifRepo.NewNotificationRepository(db)

	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")
	carol := testutil.NewUser(t, db, "carol")
	dave := testutil.NewUser(t, db, "dave")

	repo := &failingRepo{NotificationRepository: base, failFor: carol.ID}
	svc := NewNotificationService(repo, nil, nil)

	post := &model.Post{ID: uuid.New(), Body: "new 5k PR"}
	svc.Fanout([]uuid.UUID{bob.ID, carol.ID, dave.ID}, model.NotifMention, alice, post)

	// Fanout is asynchronous per recipient.
	deadline := time.Now().Add(2 * time.Second)
	for {
		bobGot, err := base.GetByRecipientID(bob.ID, 10, 0)
		require.NoError(t, err)
		daveGot, err := base.GetByRecipientID(dave.ID, 10, 0)
		require.NoError(t, err)
		if (len(bobGot) == 1 && len(daveGot) == 1) || time.Now().After(deadline) {
			assert.Len(t, bobGot, 1)
			assert.Len(t, daveGot, 1)
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	carolGot, err := base.GetByRecipientID(carol.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, carolGot, "the failing recipient never blocks the others")
}

func TestMarkAsReadScopedToRecipient(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := notifRepo.NewNotificationRepository(db)
	svc := NewNotificationService(repo, nil, nil)

	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")
	carol := testutil.NewUser(t, db, "carol")

	require.NoError(t, svc.Notify(context.Background(), bob.ID, model.NotifFollow, alice, nil))
	require.NoError(t, svc.Notify(context.Background(), carol.ID, model.NotifFollow, alice, nil))

	bobGot, err := repo.GetByRecipientID(bob.ID, 10, 0)
	require.NoError(t, err)
	carolGot, err := repo.GetByRecipientID(carol.ID, 10, 0)
	require.NoError(t, err)

	// Bob cannot mark Carol's notification as read.
	require.NoError(t, svc.MarkAsRead(bob.ID, []uuid.UUID{bobGot[0].ID, carolGot[0].ID}))

	bobUnread, err := svc.UnreadCount(bob.ID)
	require.NoError(t, err)
	assert.Zero(t, bobUnread)

	carolUnread, err := svc.UnreadCount(carol.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), carolUnread)
}
