package adapter

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

// MemoryChatRepository keeps chats and messages in process memory.
// It backs tests and the STORE_DRIVER=memory mode; state is lost on restart.
type MemoryChatRepository struct {
	mu        sync.RWMutex
	seq       uint64
	chats     map[string]*chat.Conversation
	pairs     map[string]string
	messages  map[string]*memoryMessage
	history   map[string][]string
	clientIDs map[clientKey]string
	blocks    map[[2]string]chat.Block
	reports   []chat.Report
}

type clientKey struct {
	chatID   string
	senderID string
	clientID string
}

type memoryMessage struct {
	msg chat.Message
	seq uint64
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		chats:     make(map[string]*chat.Conversation),
		pairs:     make(map[string]string),
		messages:  make(map[string]*memoryMessage),
		history:   make(map[string][]string),
		clientIDs: make(map[clientKey]string),
		blocks:    make(map[[2]string]chat.Block),
	}
}

var _ repository.ChatRepository = (*MemoryChatRepository)(nil)

func (r *MemoryChatRepository) GetChat(ctx context.Context, chatID string) (*chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chats[chatID]
	if !ok {
		return nil, chat.ErrChatNotFound
	}
	out := cloneConversation(*c)
	return &out, nil
}

func (r *MemoryChatRepository) ListChatIDsForUser(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, c := range r.sortedChatsLocked(userID) {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (r *MemoryChatRepository) ListChats(ctx context.Context, userID string, limit int, offset int) ([]chat.Conversation, error) {
	limit, offset = normalizePage(limit, offset)
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sortedChatsLocked(userID)
	if offset >= len(all) {
		return []chat.Conversation{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]chat.Conversation, 0, end-offset)
	for _, c := range all[offset:end] {
		out = append(out, cloneConversation(*c))
	}
	return out, nil
}

func (r *MemoryChatRepository) sortedChatsLocked(userID string) []*chat.Conversation {
	var res []*chat.Conversation
	for _, c := range r.chats {
		if c.HasParticipant(userID) {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].LastMessageAt.Equal(res[j].LastMessageAt) {
			return res[i].LastMessageAt.After(res[j].LastMessageAt)
		}
		return res[i].ID < res[j].ID
	})
	return res
}

func (r *MemoryChatRepository) GetOrCreatePrivateChat(ctx context.Context, c chat.Conversation) (*chat.Conversation, bool, error) {
	if c.PairKey == nil || *c.PairKey == "" {
		return nil, false, chat.Invalid("private chat requires a pair key")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.pairs[*c.PairKey]; ok {
		out := cloneConversation(*r.chats[id])
		return &out, false, nil
	}
	c = cloneConversation(c)
	c.ID = uuid.NewString()
	r.chats[c.ID] = &c
	r.pairs[*c.PairKey] = c.ID

	out := cloneConversation(c)
	return &out, true, nil
}

func (r *MemoryChatRepository) CreateGroupChat(ctx context.Context, c chat.Conversation) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c = cloneConversation(c)
	c.ID = uuid.NewString()
	c.PairKey = nil
	r.chats[c.ID] = &c

	out := cloneConversation(c)
	return &out, nil
}

func (r *MemoryChatRepository) AppendMessage(ctx context.Context, m chat.Message) (*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[m.ChatID]
	if !ok {
		return nil, chat.ErrChatNotFound
	}
	key := clientKey{chatID: m.ChatID, senderID: m.SenderID, clientID: m.ClientID}
	if m.ClientID != "" {
		if id, seen := r.clientIDs[key]; seen {
			out := cloneMessage(r.messages[id].msg)
			return &out, nil
		}
	}

	m = cloneMessage(m)
	m.ID = uuid.NewString()
	r.seq++
	r.messages[m.ID] = &memoryMessage{msg: m, seq: r.seq}
	r.history[m.ChatID] = append(r.history[m.ChatID], m.ID)
	if m.ClientID != "" {
		r.clientIDs[key] = m.ID
	}

	id := m.ID
	c.LastMessageID = &id
	c.LastMessageAt = m.CreatedAt
	c.UpdatedAt = m.CreatedAt

	out := cloneMessage(m)
	return &out, nil
}

func (r *MemoryChatRepository) GetMessage(ctx context.Context, messageID string) (*chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mm, ok := r.messages[messageID]
	if !ok {
		return nil, chat.ErrMessageNotFound
	}
	out := cloneMessage(mm.msg)
	return &out, nil
}

func (r *MemoryChatRepository) GetMessages(ctx context.Context, messageIDs []string) ([]chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]chat.Message, 0, len(messageIDs))
	for _, id := range uniqueStrings(messageIDs) {
		if mm, ok := r.messages[id]; ok {
			out = append(out, cloneMessage(mm.msg))
		}
	}
	return out, nil
}

func (r *MemoryChatRepository) ListMessages(ctx context.Context, chatID string, limit int, offset int) ([]chat.Message, error) {
	limit, offset = normalizePage(limit, offset)
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.history[chatID]
	end := len(ids) - offset
	if end <= 0 {
		return []chat.Message{}, nil
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]chat.Message, 0, end-start)
	for _, id := range ids[start:end] {
		out = append(out, cloneMessage(r.messages[id].msg))
	}
	return out, nil
}

func (r *MemoryChatRepository) UpdateMessage(ctx context.Context, m chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mm, ok := r.messages[m.ID]
	if !ok {
		return chat.ErrMessageNotFound
	}
	stored := &mm.msg
	if stored.DeletedAt != nil {
		return chat.ErrNotEditable
	}
	stored.Body = m.Body
	stored.Media = cloneMedia(m.Media)
	stored.EditedAt = cloneTime(m.EditedAt)
	stored.DeletedAt = cloneTime(m.DeletedAt)
	stored.UpdatedAt = m.UpdatedAt
	stored.State = chat.StateOf(stored.EditedAt, stored.DeletedAt)
	return nil
}

func (r *MemoryChatRepository) MarkRead(ctx context.Context, chatID string, readerID string, messageIDs []string, at time.Time) ([]string, error) {
	at = at.UTC()
	r.mu.Lock()
	defer r.mu.Unlock()

	var marked []string
	for _, id := range uniqueStrings(messageIDs) {
		mm, ok := r.messages[id]
		if !ok || mm.msg.ChatID != chatID || mm.msg.HasReader(readerID) {
			continue
		}
		mm.msg.ReadBy = append(mm.msg.ReadBy, chat.ReadEntry{UserID: readerID, ReadAt: at})
		marked = append(marked, id)
	}
	return marked, nil
}

// SearchMessages does a case-insensitive substring match over every word of the query.
func (r *MemoryChatRepository) SearchMessages(ctx context.Context, q repository.SearchQuery) ([]chat.Message, int, error) {
	limit, offset := normalizePage(q.Limit, q.Offset)
	terms := strings.Fields(strings.ToLower(q.Text))
	if len(terms) == 0 || len(q.ChatIDs) == 0 {
		return []chat.Message{}, 0, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var hits []*memoryMessage
	for _, chatID := range uniqueStrings(q.ChatIDs) {
		for _, id := range r.history[chatID] {
			mm := r.messages[id]
			if mm.msg.State == chat.MessageStateDeleted || !containsAll(strings.ToLower(mm.msg.Body), terms) {
				continue
			}
			hits = append(hits, mm)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq > hits[j].seq })

	total := len(hits)
	if offset >= total {
		return []chat.Message{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]chat.Message, 0, end-offset)
	for _, mm := range hits[offset:end] {
		out = append(out, cloneMessage(mm.msg))
	}
	return out, total, nil
}

func (r *MemoryChatRepository) BlockUser(ctx context.Context, b chat.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{b.BlockerID, b.BlockedID}
	if _, ok := r.blocks[key]; !ok {
		r.blocks[key] = b
	}
	return nil
}

func (r *MemoryChatRepository) UnblockUser(ctx context.Context, blockerID, blockedID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blocks, [2]string{blockerID, blockedID})
	return nil
}

func (r *MemoryChatRepository) IsBlocked(ctx context.Context, a, b string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ab := r.blocks[[2]string{a, b}]
	_, ba := r.blocks[[2]string{b, a}]
	return ab || ba, nil
}

func (r *MemoryChatRepository) SaveReport(ctx context.Context, rep chat.Report) (*chat.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[rep.MessageID]; !ok {
		return nil, chat.ErrMessageNotFound
	}
	rep.ID = uuid.NewString()
	r.reports = append(r.reports, rep)
	return &rep, nil
}

// Reports returns the stored reports in arrival order.
func (r *MemoryChatRepository) Reports() []chat.Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]chat.Report(nil), r.reports...)
}

func (r *MemoryChatRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func containsAll(body string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(body, t) {
			return false
		}
	}
	return true
}

func cloneConversation(c chat.Conversation) chat.Conversation {
	c.Participants = append([]string(nil), c.Participants...)
	c.Admins = append([]string(nil), c.Admins...)
	if c.LastMessageID != nil {
		id := *c.LastMessageID
		c.LastMessageID = &id
	}
	if c.PairKey != nil {
		key := *c.PairKey
		c.PairKey = &key
	}
	return c
}

func cloneMessage(m chat.Message) chat.Message {
	m.Media = cloneMedia(m.Media)
	m.ReadBy = append([]chat.ReadEntry(nil), m.ReadBy...)
	if m.ReplyToID != nil {
		id := *m.ReplyToID
		m.ReplyToID = &id
	}
	m.EditedAt = cloneTime(m.EditedAt)
	m.DeletedAt = cloneTime(m.DeletedAt)
	return m
}

func cloneMedia(media *chat.MediaRef) *chat.MediaRef {
	if media == nil {
		return nil
	}
	out := *media
	if media.Duration != nil {
		d := *media.Duration
		out.Duration = &d
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
