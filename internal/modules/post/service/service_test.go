package post

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"liftly.app/liftly/internal/model"
	account "liftly.app/liftly/internal/modules/account/service"
	mediaRepo "liftly.app/liftly/internal/modules/media/repository"
	mention "liftly.app/liftly/internal/modules/mention/service"
	notifRepo "liftly.app/liftly/internal/modules/notification/repository"
	notifService "liftly.app/liftly/internal/modules/notification/service"
	postDto "liftly.app/liftly/internal/modules/post/dto"
	postRepo "liftly.app/liftly/internal/modules/post/repository"
	userRepo "liftly.app/liftly/internal/modules/user/repository"
	"liftly.app/liftly/internal/testutil"
	"liftly.app/liftly/pkg/apperror"
)

type fakeSummoner struct {
	mu      sync.Mutex
	summons []uuid.UUID
}

func (f *fakeSummoner) Summon(postID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summons = append(f.summons, postID)
}

func (f *fakeSummoner) calls() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.summons...)
}

type postEnv struct {
	db       *gorm.DB
	posts    postRepo.PostRepository
	users    userRepo.UserRepository
	notifs   notifRepo.NotificationRepository
	svc      PostService
	summoner *fakeSummoner
}

func newPostEnv(t *testing.T) *postEnv {
	t.Helper()

	db := testutil.OpenDB(t)
	users := userRepo.NewUserRepository(db)
	posts := postRepo.NewPostRepository(db)
	media := mediaRepo.NewMediaRepository(db)
	notifs := notifRepo.NewNotificationRepository(db)

	gate := account.NewGateService(users)
	mentions := mention.NewMentionService(users)
	notifications := notifService.NewNotificationService(notifs, nil, nil)

	svc := NewPostService(posts, users, media, gate, mentions, notifications, nil, nil)
	summoner := &fakeSummoner{}
	svc.SetSummoner(summoner)

	return &postEnv{db: db, posts: posts, users: users, notifs: notifs, svc: svc, summoner: summoner}
}

func (e *postEnv) create(t *testing.T, author *model.User, req postDto.CreatePostRequest) *postDto.PostResponse {
	t.Helper()
	resp, err := e.svc.CreatePost(context.Background(), author.ID, req)
	require.NoError(t, err)
	return resp
}

func (e *postEnv) reload(t *testing.T, id uuid.UUID) *model.Post {
	t.Helper()
	var p model.Post
	require.NoError(t, e.db.First(&p, "id = ?", id).Error)
	return &p
}

func (e *postEnv) notificationsFor(t *testing.T, recipientID uuid.UUID) []model.Notification {
	t.Helper()
	list, err := e.notifs.GetByRecipientID(recipientID, 50, 0)
	require.NoError(t, err)
	return list
}

func TestCreateRootPost(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")

	resp := env.create(t, alice, postDto.CreatePostRequest{Body: "first pull day in weeks"})

	assert.Nil(t, resp.ParentID)
	assert.Nil(t, resp.ThreadRootID)
	assert.Equal(t, model.KindNote, resp.Kind)
	assert.Equal(t, model.AudienceEveryone, resp.Audience)
	assert.Equal(t, "alice", resp.Author.Handle)
}

func TestReplyInheritsRootFromRootParent(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	bob := testutil.NewUser(t, env.db, "bob")

	root := env.create(t, alice, postDto.CreatePostRequest{Body: "squat PR today"})
	reply := env.create(t, bob, postDto.CreatePostRequest{Body: "nice!", ParentID: root.ID.String()})

	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)
	require.NotNil(t, reply.ThreadRootID)
	assert.Equal(t, root.ID, *reply.ThreadRootID)

	assert.Equal(t, 1, env.reload(t, root.ID).ReplyCount)
}

func TestReplyToReplyFlattensToRoot(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	bob := testutil.NewUser(t, env.db, "bob")

	root := env.create(t, alice, postDto.CreatePostRequest{Body: "root"})
	mid := env.create(t, bob, postDto.CreatePostRequest{Body: "mid", ParentID: root.ID.String()})
	leaf := env.create(t, alice, postDto.CreatePostRequest{Body: "leaf", ParentID: mid.ID.String()})

	require.NotNil(t, leaf.ThreadRootID)
	assert.Equal(t, root.ID, *leaf.ThreadRootID, "nested replies collapse onto the conversation root")
	require.NotNil(t, leaf.ParentID)
	assert.Equal(t, mid.ID, *leaf.ParentID)

	// Each reply bumps only its direct parent.
	assert.Equal(t, 1, env.reload(t, root.ID).ReplyCount)
	assert.Equal(t, 1, env.reload(t, mid.ID).ReplyCount)
}

func TestReplyToUnknownParentFails(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")

	_, err := env.svc.CreatePost(context.Background(), alice.ID, postDto.CreatePostRequest{
		Body:     "reply",
		ParentID: uuid.NewString(),
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestReplyToDeletedParentStillThreads(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	bob := testutil.NewUser(t, env.db, "bob")

	root := env.create(t, alice, postDto.CreatePostRequest{Body: "root"})
	require.NoError(t, env.svc.DeletePost(context.Background(), alice.ID, root.ID))

	reply, err := env.svc.CreatePost(context.Background(), bob.ID, postDto.CreatePostRequest{
		Body:     "late reply",
		ParentID: root.ID.String(),
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ThreadRootID)
	assert.Equal(t, root.ID, *reply.ThreadRootID)

	// The deleted author gets no reply notification.
	assert.Empty(t, env.notificationsFor(t, alice.ID))
}

func TestDeleteReplyDecrementsParent(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	bob := testutil.NewUser(t, env.db, "bob")

	root := env.create(t, alice, postDto.CreatePostRequest{Body: "root"})
	r1 := env.create(t, bob, postDto.CreatePostRequest{Body: "one", ParentID: root.ID.String()})
	env.create(t, bob, postDto.CreatePostRequest{Body: "two", ParentID: root.ID.String()})
	require.Equal(t, 2, env.reload(t, root.ID).ReplyCount)

	require.NoError(t, env.svc.DeletePost(context.Background(), bob.ID, r1.ID))
	assert.Equal(t, 1, env.reload(t, root.ID).ReplyCount)

	// The deleted reply is gone from the thread but its row survives.
	thread, err := env.svc.GetThread(context.Background(), root.ID)
	require.NoError(t, err)
	require.Len(t, thread.Posts, 2)
	assert.NotNil(t, env.reload(t, r1.ID).DeletedAt)
}

func TestDeleteIsIdempotentOnCounters(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	bob := testutil.NewUser(t, env.db, "bob")

	root := env.create(t, alice, postDto.CreatePostRequest{Body: "root"})
	reply := env.create(t, bob, postDto.CreatePostRequest{Body: "bye", ParentID: root.ID.String()})

	require.NoError(t, env.svc.DeletePost(context.Background(), bob.ID, reply.ID))
	err := env.svc.DeletePost(context.Background(), bob.ID, reply.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Equal(t, 0, env.reload(t, root.ID).ReplyCount)
}

func TestDeleteAuthorization(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	bob := testutil.NewUser(t, env.db, "bob")
	admin := testutil.NewUser(t, env.db, "mod")
	require.NoError(t, env.db.Model(admin).Update("role", model.RoleAdmin).Error)

	post := env.create(t, alice, postDto.CreatePostRequest{Body: "mine"})

	err := env.svc.DeletePost(context.Background(), bob.ID, post.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	assert.NoError(t, env.svc.DeletePost(context.Background(), admin.ID, post.ID))
}

func TestMentionNotifications(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	bob := testutil.NewUser(t, env.db, "bob")

	env.create(t, alice, postDto.CreatePostRequest{Body: "@bob @ghost @alice check this out"})

	got := env.notificationsFor(t, bob.ID)
	require.Len(t, got, 1)
	assert.Equal(t, model.NotifMention, got[0].Type)
	assert.Equal(t, alice.ID, got[0].ActorID)

	// Self-mentions and unknown handles produce nothing.
	assert.Empty(t, env.notificationsFor(t, alice.ID))
}

func TestReplyNotifiesParentAuthorOnce(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	bob := testutil.NewUser(t, env.db, "bob")

	root := env.create(t, alice, postDto.CreatePostRequest{Body: "root"})
	env.create(t, bob, postDto.CreatePostRequest{Body: "reply", ParentID: root.ID.String()})

	got := env.notificationsFor(t, alice.ID)
	require.Len(t, got, 1)
	assert.Equal(t, model.NotifReply, got[0].Type)
}

func TestSelfReplyDoesNotNotify(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")

	root := env.create(t, alice, postDto.CreatePostRequest{Body: "root"})
	env.create(t, alice, postDto.CreatePostRequest{Body: "follow-up", ParentID: root.ID.String()})

	assert.Empty(t, env.notificationsFor(t, alice.ID))
}

func TestCoachMentionSummons(t *testing.T) {
	env := newPostEnv(t)
	testutil.NewBot(t, env.db)
	alice := testutil.NewUser(t, env.db, "alice")

	post := env.create(t, alice, postDto.CreatePostRequest{Body: "@coach how do I fix my deadlift?"})

	calls := env.summoner.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, post.ID, calls[0])
}

func TestBotPostNeverSummons(t *testing.T) {
	env := newPostEnv(t)
	bot := testutil.NewBot(t, env.db)
	alice := testutil.NewUser(t, env.db, "alice")

	root := env.create(t, alice, postDto.CreatePostRequest{Body: "@coach help"})
	require.Len(t, env.summoner.calls(), 1)

	// A bot reply that quotes the summon phrase must not loop.
	env.create(t, bot, postDto.CreatePostRequest{
		Body:     "you asked @coach, here is the answer",
		ParentID: root.ID.String(),
	})
	assert.Len(t, env.summoner.calls(), 1)
}

func TestRepost(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	bob := testutil.NewUser(t, env.db, "bob")

	target := env.create(t, alice, postDto.CreatePostRequest{Body: "bench PR"})

	plain, err := env.svc.Repost(context.Background(), bob.ID, target.ID, postDto.RepostRequest{})
	require.NoError(t, err)
	require.NotNil(t, plain.RepostOfID)
	assert.Equal(t, target.ID, *plain.RepostOfID)
	assert.False(t, plain.IsQuote)

	quote, err := env.svc.Repost(context.Background(), bob.ID, target.ID, postDto.RepostRequest{Quote: "monster lift"})
	require.NoError(t, err)
	assert.True(t, quote.IsQuote)

	assert.Equal(t, 2, env.reload(t, target.ID).RepostCount)

	got := env.notificationsFor(t, alice.ID)
	require.Len(t, got, 2)
	types := []string{got[0].Type, got[1].Type}
	assert.ElementsMatch(t, []string{model.NotifRepost, model.NotifQuote}, types)
}

func TestRepostOwnPostDoesNotNotify(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")

	target := env.create(t, alice, postDto.CreatePostRequest{Body: "mine"})
	_, err := env.svc.Repost(context.Background(), alice.ID, target.ID, postDto.RepostRequest{})
	require.NoError(t, err)

	assert.Empty(t, env.notificationsFor(t, alice.ID))
}

func TestGetThreadOrdersChronologically(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	bob := testutil.NewUser(t, env.db, "bob")

	root := env.create(t, alice, postDto.CreatePostRequest{Body: "root"})
	r1 := env.create(t, bob, postDto.CreatePostRequest{Body: "one", ParentID: root.ID.String()})
	r2 := env.create(t, alice, postDto.CreatePostRequest{Body: "two", ParentID: r1.ID.String()})

	// Any post of the conversation resolves the same thread.
	thread, err := env.svc.GetThread(context.Background(), r2.ID)
	require.NoError(t, err)

	assert.Equal(t, root.ID, thread.RootID)
	require.Len(t, thread.Posts, 3)
	assert.Equal(t, root.ID, thread.Posts[0].ID)
	assert.Equal(t, r1.ID, thread.Posts[1].ID)
	assert.Equal(t, r2.ID, thread.Posts[2].ID)
}

func TestGateBlocksCreate(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	require.NoError(t, env.db.Model(alice).Update("banned", true).Error)

	_, err := env.svc.CreatePost(context.Background(), alice.ID, postDto.CreatePostRequest{Body: "hi"})
	var gateErr *apperror.GateError
	assert.ErrorAs(t, err, &gateErr)
}

func TestLikeCounterNeverGoesNegative(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	post := env.create(t, alice, postDto.CreatePostRequest{Body: "root"})

	require.NoError(t, env.posts.Decrement(context.Background(), post.ID, postRepo.ColLikeCount))
	assert.Equal(t, 0, env.reload(t, post.ID).LikeCount)
}

func TestConcurrentRepliesKeepCounterExact(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	root := env.create(t, alice, postDto.CreatePostRequest{Body: "leg day"})

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := env.svc.CreatePost(context.Background(), alice.ID, postDto.CreatePostRequest{
				Body:     fmt.Sprintf("set %d logged", n),
				ParentID: root.ID.String(),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, writers, env.reload(t, root.ID).ReplyCount)

	live, err := env.posts.CountLiveReplies(context.Background(), root.ID)
	require.NoError(t, err)
	assert.EqualValues(t, writers, live)
}

func TestConcurrentCreateAndDeleteKeepCounterConsistent(t *testing.T) {
	env := newPostEnv(t)
	alice := testutil.NewUser(t, env.db, "alice")
	root := env.create(t, alice, postDto.CreatePostRequest{Body: "push day"})

	seeded := make([]uuid.UUID, 0, 5)
	for i := 0; i < 5; i++ {
		r := env.create(t, alice, postDto.CreatePostRequest{Body: fmt.Sprintf("warmup %d", i), ParentID: root.ID.String()})
		seeded = append(seeded, r.ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for _, id := range seeded {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			errs <- env.svc.DeletePost(context.Background(), alice.ID, id)
		}(id)
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := env.svc.CreatePost(context.Background(), alice.ID, postDto.CreatePostRequest{
				Body:     fmt.Sprintf("working set %d", n),
				ParentID: root.ID.String(),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	live, err := env.posts.CountLiveReplies(context.Background(), root.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, live)
	assert.EqualValues(t, live, env.reload(t, root.ID).ReplyCount)
}
