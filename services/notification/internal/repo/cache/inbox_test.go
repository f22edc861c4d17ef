package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fanclub/pkg/domain"
	"fanclub/pkg/queue"
	"fanclub/services/notification/internal/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInbox(t *testing.T) (Inbox, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewInbox(client), mr
}

func appendN(t *testing.T, inbox Inbox, userID string, n int) {
	for i := 0; i < n; i++ {
		_, err := inbox.Append(context.Background(), &domain.Notification{
			UserID:    userID,
			Type:      queue.EventNewLike,
			Title:     fmt.Sprintf("n%d", i+1),
			CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}
}

func TestInbox_AppendAssignsSequence(t *testing.T) {
	inbox, _ := newTestInbox(t)
	ctx := context.Background()

	n := &domain.Notification{UserID: "u1", Type: queue.EventNewPost, Title: "first"}
	unread, err := inbox.Append(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, "1", n.ID)
	assert.Equal(t, int64(1), unread)

	other := &domain.Notification{UserID: "u2", Title: "elsewhere"}
	_, err = inbox.Append(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "1", other.ID)
}

func TestInbox_ListPagesNewestFirst(t *testing.T) {
	inbox, _ := newTestInbox(t)
	ctx := context.Background()
	appendN(t, inbox, "u1", 5)

	first, err := inbox.List(ctx, "u1", 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "5", first[0].ID)
	assert.Equal(t, "4", first[1].ID)

	rest, err := inbox.List(ctx, "u1", 4, 10)
	require.NoError(t, err)
	require.Len(t, rest, 3)
	assert.Equal(t, "3", rest[0].ID)
	assert.Equal(t, "1", rest[2].ID)
}

func TestInbox_KeepsNewestOnly(t *testing.T) {
	inbox, _ := newTestInbox(t)
	appendN(t, inbox, "u1", inboxSize+5)

	all, err := inbox.List(context.Background(), "u1", 0, inboxSize*2)
	require.NoError(t, err)
	assert.Len(t, all, inboxSize)
	assert.Equal(t, fmt.Sprint(inboxSize+5), all[0].ID)
}

func TestInbox_MarkRead(t *testing.T) {
	inbox, mr := newTestInbox(t)
	ctx := context.Background()
	appendN(t, inbox, "u1", 4)

	unread, err := inbox.MarkRead(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	// the marker never moves back
	unread, err = inbox.MarkRead(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	items, err := inbox.List(ctx, "u1", 0, 10)
	require.NoError(t, err)
	assert.False(t, items[0].Read)
	assert.True(t, items[2].Read)

	unread, err = inbox.MarkRead(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Zero(t, unread)
	assert.True(t, mr.TTL(readKey("u1")) > 0)
}

func TestInbox_MarkReadEmpty(t *testing.T) {
	inbox, _ := newTestInbox(t)
	unread, err := inbox.MarkRead(context.Background(), "nobody", 0)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestInbox_MarkReadClampsToNewest(t *testing.T) {
	inbox, _ := newTestInbox(t)
	ctx := context.Background()
	appendN(t, inbox, "u1", 2)

	unread, err := inbox.MarkRead(ctx, "u1", 1000)
	require.NoError(t, err)
	assert.Zero(t, unread)

	appendN(t, inbox, "u1", 1)
	unread, err = inbox.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	items, err := inbox.List(ctx, "u1", 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.False(t, items[0].Read)
	assert.True(t, items[1].Read)
}

func TestInbox_MarkerExpiresWithSequence(t *testing.T) {
	inbox, mr := newTestInbox(t)
	ctx := context.Background()
	appendN(t, inbox, "u1", 3)

	mr.FastForward(29 * 24 * time.Hour)
	_, err := inbox.MarkRead(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, mr.TTL(readKey("u1")), mr.TTL(seqKey("u1")))

	mr.FastForward(10 * 24 * time.Hour)
	appendN(t, inbox, "u1", 1)

	unread, err := inbox.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
	items, err := inbox.List(ctx, "u1", 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "4", items[0].ID)
	assert.False(t, items[0].Read)

	mr.FastForward(inboxTTL + time.Hour)
	assert.False(t, mr.Exists(readKey("u1")))
	appendN(t, inbox, "u1", 1)

	unread, err = inbox.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
	items, err = inbox.List(ctx, "u1", 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
	assert.False(t, items[0].Read)
}

func TestInbox_FreshSequenceDropsStaleMarker(t *testing.T) {
	inbox, mr := newTestInbox(t)
	ctx := context.Background()
	mr.Set(readKey("u1"), "50")

	unread, err := inbox.Append(ctx, &domain.Notification{UserID: "u1", Title: "again"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
	assert.False(t, mr.Exists(readKey("u1")))
}

func TestInbox_Mute(t *testing.T) {
	inbox, _ := newTestInbox(t)
	ctx := context.Background()

	muted, err := inbox.Muted(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, muted)

	require.NoError(t, inbox.SetMuted(ctx, "u1", "c1", true))
	muted, _ = inbox.Muted(ctx, "u1", "c1")
	assert.True(t, muted)

	require.NoError(t, inbox.SetMuted(ctx, "u1", "c1", false))
	muted, _ = inbox.Muted(ctx, "u1", "c1")
	assert.False(t, muted)
}

func TestInbox_PublishSubscribe(t *testing.T) {
	inbox, _ := newTestInbox(t)
	ctx := context.Background()

	sub := inbox.Subscribe(ctx, "u1")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, inbox.Publish(ctx, "u1", entity.Push{UnreadCount: 3}))

	select {
	case msg := <-sub.Channel():
		assert.JSONEq(t, `{"unread_count":3}`, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
