package adapter

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

// runRepositoryContract exercises behavior every ChatRepository adapter must share.
// newRepo must return an empty store.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) repository.ChatRepository) {
	t.Run("private chat is unique per pair", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		ab, err := chat.NewPrivateConversation("alice", "bob", time.Now())
		require.NoError(t, err)
		first, created, err := repo.GetOrCreatePrivateChat(ctx, ab)
		require.NoError(t, err)
		assert.True(t, created)

		ba, err := chat.NewPrivateConversation("bob", "alice", time.Now())
		require.NoError(t, err)
		second, created, err := repo.GetOrCreatePrivateChat(ctx, ba)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.ElementsMatch(t, []string{"alice", "bob"}, second.Participants)

		ids, err := repo.ListChatIDsForUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID}, ids)
	})

	t.Run("concurrent private chat creation yields one chat", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const workers = 8
		results := make([]string, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				a, b := "carol", "dave"
				if i%2 == 1 {
					a, b = b, a
				}
				c, err := chat.NewPrivateConversation(a, b, time.Now())
				if err != nil {
					return
				}
				res, _, err := repo.GetOrCreatePrivateChat(ctx, c)
				if err == nil {
					results[i] = res.ID
				}
			}(i)
		}
		wg.Wait()

		for _, id := range results {
			assert.Equal(t, results[0], id)
		}
		ids, err := repo.ListChatIDsForUser(ctx, "carol")
		require.NoError(t, err)
		assert.Len(t, ids, 1)
	})

	t.Run("append moves last message and lists chronologically", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		conv := mustPrivateChat(t, repo, "alice", "bob")

		base := time.Now().UTC().Truncate(time.Millisecond)
		var ids []string
		for i := 0; i < 5; i++ {
			m := mustAppend(t, repo, conv.ID, "alice", fmt.Sprintf("msg %d", i), base.Add(time.Duration(i)*time.Second))
			ids = append(ids, m.ID)
		}

		got, err := repo.GetChat(ctx, conv.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastMessageID)
		assert.Equal(t, ids[4], *got.LastMessageID)
		assert.True(t, got.LastMessageAt.Equal(base.Add(4*time.Second)))

		page, err := repo.ListMessages(ctx, conv.ID, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, []string{ids[3], ids[4]}, []string{page[0].ID, page[1].ID})

		older, err := repo.ListMessages(ctx, conv.ID, 2, 2)
		require.NoError(t, err)
		require.Len(t, older, 2)
		assert.Equal(t, []string{ids[1], ids[2]}, []string{older[0].ID, older[1].ID})

		tail, err := repo.ListMessages(ctx, conv.ID, 2, 4)
		require.NoError(t, err)
		require.Len(t, tail, 1)
		assert.Equal(t, ids[0], tail[0].ID)

		m, err := repo.GetMessage(ctx, ids[0])
		require.NoError(t, err)
		require.Len(t, m.ReadBy, 1)
		assert.Equal(t, "alice", m.ReadBy[0].UserID)
	})

	t.Run("mark read is idempotent and scoped to the chat", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		conv := mustPrivateChat(t, repo, "alice", "bob")
		other := mustPrivateChat(t, repo, "alice", "erin")

		m1 := mustAppend(t, repo, conv.ID, "alice", "one", time.Now())
		m2 := mustAppend(t, repo, conv.ID, "alice", "two", time.Now())
		foreign := mustAppend(t, repo, other.ID, "alice", "elsewhere", time.Now())

		at := time.Now().UTC().Truncate(time.Millisecond)
		marked, err := repo.MarkRead(ctx, conv.ID, "bob", []string{m2.ID, m1.ID, foreign.ID, "missing"}, at)
		require.NoError(t, err)
		assert.Equal(t, []string{m2.ID, m1.ID}, marked)

		again, err := repo.MarkRead(ctx, conv.ID, "bob", []string{m1.ID, m2.ID}, at.Add(time.Minute))
		require.NoError(t, err)
		assert.Empty(t, again)

		got, err := repo.GetMessage(ctx, m1.ID)
		require.NoError(t, err)
		assert.Len(t, got.ReadBy, 2)
		bobEntries := 0
		for _, r := range got.ReadBy {
			if r.UserID == "bob" {
				bobEntries++
				assert.True(t, r.ReadAt.Equal(at))
			}
		}
		assert.Equal(t, 1, bobEntries)

		f, err := repo.GetMessage(ctx, foreign.ID)
		require.NoError(t, err)
		assert.False(t, f.HasReader("bob"))
	})

	t.Run("concurrent markers add one entry each", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		conv := mustPrivateChat(t, repo, "alice", "bob")
		m := mustAppend(t, repo, conv.ID, "alice", "race", time.Now())

		const workers = 10
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			total int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				marked, err := repo.MarkRead(ctx, conv.ID, "bob", []string{m.ID}, time.Now())
				if err == nil {
					mu.Lock()
					total += len(marked)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, total)
	})

	t.Run("update persists edit and tombstone", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		conv := mustPrivateChat(t, repo, "alice", "bob")
		m := mustAppend(t, repo, conv.ID, "alice", "draft", time.Now())

		edited, err := m.Edit("alice", "final", time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.UpdateMessage(ctx, edited))

		got, err := repo.GetMessage(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "final", got.Body)
		assert.Equal(t, chat.MessageStateEdited, got.State)

		deleted, err := got.Delete("alice", time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.UpdateMessage(ctx, deleted))

		got, err = repo.GetMessage(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, chat.Tombstone, got.Body)
		assert.Equal(t, chat.MessageStateDeleted, got.State)
		assert.Equal(t, conv.ID, got.ChatID)
	})

	t.Run("stale edit cannot revive a deleted message", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		conv := mustPrivateChat(t, repo, "alice", "bob")
		m := mustAppend(t, repo, conv.ID, "alice", "original", time.Now())

		// Two devices of the sender: one edits from a copy read before the other deletes.
		staleEdit, err := m.Edit("alice", "edited after delete", time.Now())
		require.NoError(t, err)
		deleted, err := m.Delete("alice", time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.UpdateMessage(ctx, deleted))

		assert.ErrorIs(t, repo.UpdateMessage(ctx, staleEdit), chat.ErrNotEditable)
		assert.ErrorIs(t, repo.UpdateMessage(ctx, deleted), chat.ErrNotEditable)

		got, err := repo.GetMessage(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, chat.Tombstone, got.Body)
		assert.Equal(t, chat.MessageStateDeleted, got.State)
		assert.NotNil(t, got.DeletedAt)

		missing, err := m.Edit("alice", "x", time.Now())
		require.NoError(t, err)
		missing.ID = "00000000-0000-0000-0000-000000000000"
		assert.ErrorIs(t, repo.UpdateMessage(ctx, missing), chat.ErrMessageNotFound)
	})

	t.Run("client id makes append idempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		conv := mustPrivateChat(t, repo, "alice", "bob")

		draft, err := chat.NewMessage(chat.Message{ChatID: conv.ID, SenderID: "alice", Body: "once", ClientID: "k-1"}, time.Now())
		require.NoError(t, err)
		first, err := repo.AppendMessage(ctx, *draft)
		require.NoError(t, err)
		again, err := repo.AppendMessage(ctx, *draft)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, "k-1", again.ClientID)
		assert.Len(t, again.ReadBy, 1)

		// The key is scoped to the sender.
		other, err := chat.NewMessage(chat.Message{ChatID: conv.ID, SenderID: "bob", Body: "mine", ClientID: "k-1"}, time.Now())
		require.NoError(t, err)
		fromBob, err := repo.AppendMessage(ctx, *other)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, fromBob.ID)

		msgs, err := repo.ListMessages(ctx, conv.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, msgs, 2)
	})

	t.Run("blocks apply in both directions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		b, err := chat.NewBlock("alice", "bob", time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.BlockUser(ctx, b))
		require.NoError(t, repo.BlockUser(ctx, b))

		blocked, err := repo.IsBlocked(ctx, "bob", "alice")
		require.NoError(t, err)
		assert.True(t, blocked)
		blocked, err = repo.IsBlocked(ctx, "alice", "carol")
		require.NoError(t, err)
		assert.False(t, blocked)

		// Only the blocker can lift it.
		require.NoError(t, repo.UnblockUser(ctx, "bob", "alice"))
		blocked, err = repo.IsBlocked(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.True(t, blocked)

		require.NoError(t, repo.UnblockUser(ctx, "alice", "bob"))
		blocked, err = repo.IsBlocked(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.False(t, blocked)
	})

	t.Run("reports reference stored messages", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		conv := mustPrivateChat(t, repo, "alice", "bob")
		m := mustAppend(t, repo, conv.ID, "bob", "spam link", time.Now())

		r, err := chat.NewReport(*m, "alice", "spam", "", time.Now())
		require.NoError(t, err)
		saved, err := repo.SaveReport(ctx, r)
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, m.ID, saved.MessageID)

		r.MessageID = "00000000-0000-0000-0000-000000000000"
		_, err = repo.SaveReport(ctx, r)
		assert.ErrorIs(t, err, chat.ErrMessageNotFound)
	})

	t.Run("search skips deleted and foreign chats", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		conv := mustPrivateChat(t, repo, "alice", "bob")
		other := mustPrivateChat(t, repo, "carol", "dave")

		keep := mustAppend(t, repo, conv.ID, "alice", "meeting at noon", time.Now())
		gone := mustAppend(t, repo, conv.ID, "alice", "meeting cancelled", time.Now())
		mustAppend(t, repo, other.ID, "carol", "meeting elsewhere", time.Now())

		deleted, err := gone.Delete("alice", time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.UpdateMessage(ctx, deleted))

		hits, total, err := repo.SearchMessages(ctx, repository.SearchQuery{ChatIDs: []string{conv.ID}, Text: "meeting", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, hits, 1)
		assert.Equal(t, keep.ID, hits[0].ID)

		none, total, err := repo.SearchMessages(ctx, repository.SearchQuery{Text: "meeting"})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, none)
	})

	t.Run("list chats orders by activity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		older := mustPrivateChat(t, repo, "alice", "bob")
		newer := mustPrivateChat(t, repo, "alice", "carol")

		mustAppend(t, repo, newer.ID, "alice", "first", time.Now().Add(-time.Minute))
		mustAppend(t, repo, older.ID, "alice", "latest", time.Now())

		chats, err := repo.ListChats(ctx, "alice", 10, 0)
		require.NoError(t, err)
		require.Len(t, chats, 2)
		assert.Equal(t, older.ID, chats[0].ID)
		assert.Equal(t, newer.ID, chats[1].ID)

		paged, err := repo.ListChats(ctx, "alice", 1, 1)
		require.NoError(t, err)
		require.Len(t, paged, 1)
		assert.Equal(t, newer.ID, paged[0].ID)
	})

	t.Run("group keeps admins", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		g, err := chat.NewGroupConversation("alice", "crew", "", "", []string{"bob", "carol"}, time.Now())
		require.NoError(t, err)
		created, err := repo.CreateGroupChat(ctx, g)
		require.NoError(t, err)

		got, err := repo.GetChat(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, chat.ChatTypeGroup, got.Type)
		assert.Equal(t, []string{"alice", "bob", "carol"}, got.Participants)
		assert.Equal(t, []string{"alice"}, got.Admins)
	})

	t.Run("missing records map to not found", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_, err := repo.GetChat(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, chat.ErrChatNotFound)
		_, err = repo.GetMessage(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, chat.ErrMessageNotFound)
		_, err = repo.GetChat(ctx, "not-an-id")
		assert.ErrorIs(t, err, chat.ErrNotFound)
	})
}

func mustPrivateChat(t *testing.T, repo repository.ChatRepository, a, b string) *chat.Conversation {
	t.Helper()
	c, err := chat.NewPrivateConversation(a, b, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	res, _, err := repo.GetOrCreatePrivateChat(context.Background(), c)
	require.NoError(t, err)
	return res
}

func mustAppend(t *testing.T, repo repository.ChatRepository, chatID, sender, body string, at time.Time) *chat.Message {
	t.Helper()
	m, err := chat.NewMessage(chat.Message{ChatID: chatID, SenderID: sender, Body: body}, at)
	require.NoError(t, err)
	stored, err := repo.AppendMessage(context.Background(), *m)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)
	return stored
}
