package mention

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liftly.app/liftly/internal/testutil"
	userRepo "liftly.app/liftly/internal/modules/user/repository"
)

func TestExtractHandles(t *testing.T) {
	svc := &mentionService{}

	tests := []struct {
		name   string
		body   string
		author string
		want   []string
	}{
		{"no mentions", "leg day was brutal", "alice", nil},
		{"single mention", "thanks @bob for the spot", "alice", []string{"bob"}},
		{"duplicates collapse", "@bob @bob @bob", "alice", []string{"bob"}},
		{"case-insensitive dedupe keeps first form", "@Bob and @bob again", "alice", []string{"Bob"}},
		{"author excluded", "note to self @alice and @bob", "alice", []string{"bob"}},
		{"author excluded case-insensitively", "@Alice @bob", "alice", []string{"bob"}},
		{"order follows appearance", "@carol then @bob then @dave", "alice", []string{"carol", "bob", "dave"}},
		{"punctuation terminates handle", "hey @bob, nice set!", "alice", []string{"bob"}},
		{"underscores and digits allowed", "@lift_2x is strong", "alice", []string{"lift_2x"}},
		{"bare at sign ignored", "mail me @ home @bob", "alice", []string{"bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.ExtractHandles(tt.body, tt.author))
		})
	}
}

func TestResolveDropsUnknownHandles(t *testing.T) {
	db := testutil.OpenDB(t)
	bob := testutil.NewUser(t, db, "bob")

	svc := NewMentionService(userRepo.NewUserRepository(db))

	users, err := svc.Resolve(context.Background(), []string{"bob", "ghost"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob.ID, users[0].ID)
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	db := testutil.OpenDB(t)
	bob := testutil.NewUser(t, db, "bob")

	svc := NewMentionService(userRepo.NewUserRepository(db))

	users, err := svc.Resolve(context.Background(), []string{"BOB"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob.ID, users[0].ID)
}

func TestResolveEmptyInput(t *testing.T) {
	svc := NewMentionService(nil)
	users, err := svc.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}
