package usecase

import (
	"context"
	"log/slog"
	"time"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/kuhelii/linked-in-connect-app/internal/repository/port"
)

// ReadView is one read receipt of a message.
type ReadView struct {
	User   string    `json:"user"`
	ReadAt time.Time `json:"readAt"`
}

// MediaMetadata describes an attachment produced by the media store.
type MediaMetadata struct {
	FileName string   `json:"fileName,omitempty"`
	FileSize int64    `json:"fileSize,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// ReplyView summarizes the message a reply points at.
type ReplyView struct {
	ID          string           `json:"_id"`
	Content     string           `json:"content"`
	Sender      chat.Participant `json:"sender"`
	MessageType chat.MessageType `json:"messageType"`
}

// MessageView is a message with its sender and reply target resolved for clients.
type MessageView struct {
	ID            string            `json:"_id"`
	ChatID        string            `json:"chatId"`
	Sender        chat.Participant  `json:"sender"`
	Content       string            `json:"content"`
	MessageType   chat.MessageType  `json:"messageType"`
	MediaURL      string            `json:"mediaUrl,omitempty"`
	MediaMetadata *MediaMetadata    `json:"mediaMetadata,omitempty"`
	ReadBy        []ReadView        `json:"readBy"`
	ReplyTo       *ReplyView        `json:"replyTo,omitempty"`
	State         chat.MessageState `json:"state"`
	IsEdited      bool              `json:"isEdited"`
	IsDeleted     bool              `json:"isDeleted"`
	EditedAt      *time.Time        `json:"editedAt,omitempty"`
	DeletedAt     *time.Time        `json:"deletedAt,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// ChatView is a conversation with its members resolved.
type ChatView struct {
	ID            string             `json:"_id"`
	Type          chat.ChatType      `json:"type"`
	Participants  []chat.Participant `json:"participants"`
	Admins        []string           `json:"admins,omitempty"`
	Name          string             `json:"name,omitempty"`
	Description   string             `json:"description,omitempty"`
	Avatar        string             `json:"avatar,omitempty"`
	LastMessage   *MessageView       `json:"lastMessage,omitempty"`
	LastMessageAt time.Time          `json:"lastMessageAt"`
	CreatedBy     string             `json:"createdBy"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Resolver turns stored records into client views, looking up display
// records in the user directory in one batch per call.
type Resolver struct {
	Repo  repository.ChatRepository
	Users userrepo.UserRepository
}

func NewResolver(chats repository.ChatRepository, users userrepo.UserRepository) *Resolver {
	return &Resolver{Repo: chats, Users: users}
}

// Messages resolves msgs, keeping their order.
func (r *Resolver) Messages(ctx context.Context, msgs []chat.Message) ([]MessageView, error) {
	if len(msgs) == 0 {
		return []MessageView{}, nil
	}

	var replyIDs []string
	for _, m := range msgs {
		if m.ReplyToID != nil {
			replyIDs = append(replyIDs, *m.ReplyToID)
		}
	}
	replies := make(map[string]chat.Message, len(replyIDs))
	if len(replyIDs) > 0 {
		found, err := r.Repo.GetMessages(ctx, replyIDs)
		if err != nil {
			return nil, persistence(err)
		}
		for _, m := range found {
			replies[m.ID] = m
		}
	}

	userIDs := make([]string, 0, len(msgs)+len(replies))
	for _, m := range msgs {
		userIDs = append(userIDs, m.SenderID)
	}
	for _, m := range replies {
		userIDs = append(userIDs, m.SenderID)
	}
	people, err := r.participants(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		v := messageView(m, people)
		if m.ReplyToID != nil {
			if target, ok := replies[*m.ReplyToID]; ok {
				v.ReplyTo = &ReplyView{
					ID:          target.ID,
					Content:     target.Body,
					Sender:      people.get(target.SenderID),
					MessageType: target.Type,
				}
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// Message resolves a single message.
func (r *Resolver) Message(ctx context.Context, m chat.Message) (*MessageView, error) {
	views, err := r.Messages(ctx, []chat.Message{m})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Committed resolves a message that is already stored. A failed lookup leaves
// the sender and reply as placeholders instead of failing the caller.
func (r *Resolver) Committed(ctx context.Context, m chat.Message, logger *slog.Logger) *MessageView {
	view, err := r.Message(ctx, m)
	if err == nil {
		return view
	}
	logger.Warn("message view degraded", "chatId", m.ChatID, "messageId", m.ID, "error", err)
	v := messageView(m, directory{})
	if m.ReplyToID != nil {
		v.ReplyTo = &ReplyView{ID: *m.ReplyToID, Sender: chat.UnknownParticipant("")}
	}
	return &v
}

// Chats resolves conversations together with their last message.
func (r *Resolver) Chats(ctx context.Context, convs []chat.Conversation) ([]ChatView, error) {
	if len(convs) == 0 {
		return []ChatView{}, nil
	}

	var lastIDs, userIDs []string
	for _, c := range convs {
		userIDs = append(userIDs, c.Participants...)
		if c.LastMessageID != nil {
			lastIDs = append(lastIDs, *c.LastMessageID)
		}
	}

	last := make(map[string]MessageView, len(lastIDs))
	if len(lastIDs) > 0 {
		msgs, err := r.Repo.GetMessages(ctx, lastIDs)
		if err != nil {
			return nil, persistence(err)
		}
		views, err := r.Messages(ctx, msgs)
		if err != nil {
			return nil, err
		}
		for _, v := range views {
			last[v.ID] = v
		}
	}

	people, err := r.participants(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]ChatView, 0, len(convs))
	for _, c := range convs {
		v := ChatView{
			ID:            c.ID,
			Type:          c.Type,
			Participants:  make([]chat.Participant, 0, len(c.Participants)),
			Admins:        c.Admins,
			Name:          c.Name,
			Description:   c.Description,
			Avatar:        c.Avatar,
			LastMessageAt: c.LastMessageAt,
			CreatedBy:     c.CreatedBy,
			CreatedAt:     c.CreatedAt,
			UpdatedAt:     c.UpdatedAt,
		}
		for _, id := range c.Participants {
			v.Participants = append(v.Participants, people.get(id))
		}
		if c.LastMessageID != nil {
			if m, ok := last[*c.LastMessageID]; ok {
				v.LastMessage = &m
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// Chat resolves one conversation.
func (r *Resolver) Chat(ctx context.Context, c chat.Conversation) (*ChatView, error) {
	views, err := r.Chats(ctx, []chat.Conversation{c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

type directory map[string]chat.Participant

func (d directory) get(id string) chat.Participant {
	if p, ok := d[id]; ok {
		return p
	}
	return chat.UnknownParticipant(id)
}

func (r *Resolver) participants(ctx context.Context, ids []string) (directory, error) {
	users, err := r.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, persistence(err)
	}
	d := make(directory, len(users))
	for id, u := range users {
		d[id] = toParticipant(u)
	}
	return d, nil
}

func toParticipant(u userrepo.User) chat.Participant {
	return chat.Participant{
		UserID:       u.ID,
		Name:         u.Name,
		ProfileImage: u.ProfileImage,
		IsAnonymous:  u.IsAnonymous,
	}
}

func messageView(m chat.Message, people directory) MessageView {
	v := MessageView{
		ID:          m.ID,
		ChatID:      m.ChatID,
		Sender:      people.get(m.SenderID),
		Content:     m.Body,
		MessageType: m.Type,
		ReadBy:      make([]ReadView, 0, len(m.ReadBy)),
		State:       m.State,
		IsEdited:    m.EditedAt != nil,
		IsDeleted:   m.DeletedAt != nil,
		EditedAt:    m.EditedAt,
		DeletedAt:   m.DeletedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Media != nil {
		v.MediaURL = m.Media.URL
		v.MediaMetadata = &MediaMetadata{
			FileName: m.Media.FileName,
			FileSize: m.Media.FileSize,
			MimeType: m.Media.MimeType,
			Duration: m.Media.Duration,
		}
	}
	for _, r := range m.ReadBy {
		v.ReadBy = append(v.ReadBy, ReadView{User: r.UserID, ReadAt: r.ReadAt})
	}
	return v
}
