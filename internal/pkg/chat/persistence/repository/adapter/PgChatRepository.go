package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

const foreignKeyViolation = "23503"

const conversationColumns = `c.id::text, c.chat_type, c.name, c.description, c.avatar, c.pair_key,
	c.last_message_id::text, c.last_message_at, c.created_by, c.created_at, c.updated_at`

const messageColumns = `m.id::text, m.conversation_id::text, m.sender_id, m.body, m.msg_type,
	m.attachment_url, m.attachment_meta, m.reply_to_id::text, coalesce(m.client_id, ''), m.edited_at,
	m.deleted_at, m.created_at, m.updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

var errNilPool = errors.New("PgChatRepository: nil pool")

func (r *PgChatRepository) GetChat(ctx context.Context, chatID string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if !isUUID(chatID) {
		return nil, chat.ErrChatNotFound
	}
	return r.getChatWhere(ctx, r.pool, "c.id = $1", chatID)
}

func (r *PgChatRepository) getChatWhere(ctx context.Context, q querier, cond string, arg any) (*chat.Conversation, error) {
	c, err := scanConversation(q.QueryRow(ctx, "SELECT "+conversationColumns+" FROM chat.conversation c WHERE "+cond, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	convs := []chat.Conversation{c}
	if err := attachParticipants(ctx, q, convs); err != nil {
		return nil, err
	}
	return &convs[0], nil
}

func (r *PgChatRepository) ListChatIDsForUser(ctx context.Context, userID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT p.conversation_id::text
		FROM chat.participant p
		JOIN chat.conversation c ON c.id = p.conversation_id
		WHERE p.user_id = $1
		ORDER BY c.last_message_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *PgChatRepository) ListChats(ctx context.Context, userID string, limit int, offset int) ([]chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	limit, offset = normalizePage(limit, offset)

	query, args, err := psql.Select(conversationColumns).
		From("chat.conversation c").
		Join("chat.participant p ON p.conversation_id = c.id").
		Where(sq.Eq{"p.user_id": userID}).
		OrderBy("c.last_message_at DESC", "c.id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list chats: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	convs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (chat.Conversation, error) {
		return scanConversation(row)
	})
	if err != nil {
		return nil, err
	}
	if err := attachParticipants(ctx, r.pool, convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *PgChatRepository) GetOrCreatePrivateChat(ctx context.Context, c chat.Conversation) (*chat.Conversation, bool, error) {
	if r == nil || r.pool == nil {
		return nil, false, errNilPool
	}
	if c.PairKey == nil || *c.PairKey == "" {
		return nil, false, chat.Invalid("private chat requires a pair key")
	}

	created := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `
			INSERT INTO chat.conversation (chat_type, pair_key, last_message_at, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (pair_key) DO NOTHING
			RETURNING id::text
		`, string(chat.ChatTypePrivate), *c.PairKey, c.LastMessageAt, c.CreatedBy, c.CreatedAt, c.UpdatedAt).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			// Another request owns the pair; it is read back below.
			return nil
		}
		if err != nil {
			return err
		}
		created = true
		return insertParticipants(ctx, tx, id, c)
	})
	if err != nil {
		return nil, false, err
	}

	res, err := r.getChatWhere(ctx, r.pool, "c.pair_key = $1", *c.PairKey)
	if err != nil {
		return nil, false, err
	}
	return res, created, nil
}

func (r *PgChatRepository) CreateGroupChat(ctx context.Context, c chat.Conversation) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO chat.conversation (chat_type, name, description, avatar, last_message_at, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id::text
		`, string(chat.ChatTypeGroup), c.Name, c.Description, c.Avatar, c.LastMessageAt, c.CreatedBy, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
		if err != nil {
			return err
		}
		return insertParticipants(ctx, tx, c.ID, c)
	})
	if err != nil {
		return nil, err
	}
	c.PairKey = nil
	return &c, nil
}

func insertParticipants(ctx context.Context, tx pgx.Tx, conversationID string, c chat.Conversation) error {
	ins := psql.Insert("chat.participant").
		Columns("conversation_id", "user_id", "role", "position", "joined_at")
	for i, userID := range c.Participants {
		role := "member"
		if c.IsAdmin(userID) {
			role = "admin"
		}
		ins = ins.Values(conversationID, userID, role, i, c.CreatedAt)
	}
	query, args, err := ins.Suffix("ON CONFLICT (conversation_id, user_id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build participants insert: %w", err)
	}
	_, err = tx.Exec(ctx, query, args...)
	return err
}

func attachParticipants(ctx context.Context, q querier, convs []chat.Conversation) error {
	if len(convs) == 0 {
		return nil
	}
	ids := make([]string, len(convs))
	index := make(map[string]int, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
		index[c.ID] = i
	}

	rows, err := q.Query(ctx, `
		SELECT conversation_id::text, user_id, role
		FROM chat.participant
		WHERE conversation_id = ANY($1::uuid[])
		ORDER BY conversation_id, position
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var convID, userID, role string
		if err := rows.Scan(&convID, &userID, &role); err != nil {
			return err
		}
		i, ok := index[convID]
		if !ok {
			continue
		}
		convs[i].Participants = append(convs[i].Participants, userID)
		if role == "admin" {
			convs[i].Admins = append(convs[i].Admins, userID)
		}
	}
	return rows.Err()
}

func (r *PgChatRepository) AppendMessage(ctx context.Context, m chat.Message) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if !isUUID(m.ChatID) {
		return nil, chat.ErrChatNotFound
	}
	url, meta, err := encodeMedia(m.Media)
	if err != nil {
		return nil, err
	}

	var replay *chat.Message
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO chat.message (
				conversation_id, sender_id, body, msg_type, attachment_url, attachment_meta, reply_to_id,
				client_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (conversation_id, sender_id, client_id) WHERE client_id IS NOT NULL DO NOTHING
			RETURNING id::text
		`, m.ChatID, m.SenderID, m.Body, string(m.Type), url, meta, m.ReplyToID,
			nullIfEmpty(m.ClientID), m.CreatedAt, m.UpdatedAt).Scan(&m.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			// The sender already stored this client id; hand back that message.
			stored, err := scanMessage(tx.QueryRow(ctx, "SELECT "+messageColumns+`
				FROM chat.message m
				WHERE m.conversation_id = $1 AND m.sender_id = $2 AND m.client_id = $3
			`, m.ChatID, m.SenderID, m.ClientID))
			if err != nil {
				return err
			}
			replay = &stored
			return nil
		}
		if err != nil {
			return err
		}

		for _, entry := range m.ReadBy {
			if _, err := tx.Exec(ctx, `
				INSERT INTO chat.message_read (message_id, user_id, read_at)
				VALUES ($1, $2, $3)
				ON CONFLICT (message_id, user_id) DO NOTHING
			`, m.ID, entry.UserID, entry.ReadAt); err != nil {
				return err
			}
		}

		ct, err := tx.Exec(ctx, `
			UPDATE chat.conversation
			SET last_message_id = $2, last_message_at = $3, updated_at = $3
			WHERE id = $1
		`, m.ChatID, m.ID, m.CreatedAt)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return chat.ErrChatNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if replay != nil {
		msgs := []chat.Message{*replay}
		if err := r.attachReads(ctx, msgs); err != nil {
			return nil, err
		}
		return &msgs[0], nil
	}
	return &m, nil
}

func (r *PgChatRepository) GetMessage(ctx context.Context, messageID string) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if !isUUID(messageID) {
		return nil, chat.ErrMessageNotFound
	}
	m, err := scanMessage(r.pool.QueryRow(ctx, "SELECT "+messageColumns+" FROM chat.message m WHERE m.id = $1", messageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	msgs := []chat.Message{m}
	if err := r.attachReads(ctx, msgs); err != nil {
		return nil, err
	}
	return &msgs[0], nil
}

func (r *PgChatRepository) GetMessages(ctx context.Context, messageIDs []string) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	ids := validUUIDs(messageIDs)
	if len(ids) == 0 {
		return []chat.Message{}, nil
	}
	return r.queryMessages(ctx, "SELECT "+messageColumns+" FROM chat.message m WHERE m.id = ANY($1::uuid[])", ids)
}

func (r *PgChatRepository) ListMessages(ctx context.Context, chatID string, limit int, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if !isUUID(chatID) {
		return []chat.Message{}, nil
	}
	limit, offset = normalizePage(limit, offset)

	msgs, err := r.queryMessages(ctx, `
		SELECT `+messageColumns+`
		FROM chat.message m
		WHERE m.conversation_id = $1
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT $2 OFFSET $3
	`, chatID, limit, offset)
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (r *PgChatRepository) UpdateMessage(ctx context.Context, m chat.Message) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	if !isUUID(m.ID) {
		return chat.ErrMessageNotFound
	}
	url, meta, err := encodeMedia(m.Media)
	if err != nil {
		return err
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.message
		SET body = $2, attachment_url = $3, attachment_meta = $4,
		    edited_at = $5, deleted_at = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL
	`, m.ID, m.Body, url, meta, m.EditedAt, m.DeletedAt, m.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chat.message WHERE id = $1)`, m.ID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return chat.ErrNotEditable
	}
	return chat.ErrMessageNotFound
}

func (r *PgChatRepository) MarkRead(ctx context.Context, chatID string, readerID string, messageIDs []string, at time.Time) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	ids := validUUIDs(messageIDs)
	if !isUUID(chatID) || len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
		INSERT INTO chat.message_read (message_id, user_id, read_at)
		SELECT m.id, $2, $3
		FROM chat.message m
		WHERE m.conversation_id = $1 AND m.id = ANY($4::uuid[])
		ON CONFLICT (message_id, user_id) DO NOTHING
		RETURNING message_id::text
	`, chatID, readerID, at.UTC(), ids)
	if err != nil {
		return nil, err
	}
	marked, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return inRequestOrder(ids, marked), nil
}

func (r *PgChatRepository) SearchMessages(ctx context.Context, q repository.SearchQuery) ([]chat.Message, int, error) {
	if r == nil || r.pool == nil {
		return nil, 0, errNilPool
	}
	limit, offset := normalizePage(q.Limit, q.Offset)
	chatIDs := validUUIDs(q.ChatIDs)
	if len(chatIDs) == 0 || q.Text == "" {
		return []chat.Message{}, 0, nil
	}

	base := psql.Select().
		From("chat.message m").
		Where("m.deleted_at IS NULL").
		Where("m.search_vector @@ plainto_tsquery('simple', ?)", q.Text).
		Where("m.conversation_id = ANY(?::uuid[])", chatIDs)

	countSQL, countArgs, err := base.Columns("count(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build search count: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []chat.Message{}, 0, nil
	}

	pageSQL, pageArgs, err := base.Columns(messageColumns).
		OrderBy("m.created_at DESC", "m.seq DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build search page: %w", err)
	}
	msgs, err := r.queryMessages(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func (r *PgChatRepository) BlockUser(ctx context.Context, b chat.Block) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.block (blocker_id, blocked_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`, b.BlockerID, b.BlockedID, b.CreatedAt)
	return err
}

func (r *PgChatRepository) UnblockUser(ctx context.Context, blockerID, blockedID string) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM chat.block WHERE blocker_id = $1 AND blocked_id = $2`, blockerID, blockedID)
	return err
}

func (r *PgChatRepository) IsBlocked(ctx context.Context, a, b string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errNilPool
	}
	var blocked bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat.block
			WHERE (blocker_id = $1 AND blocked_id = $2) OR (blocker_id = $2 AND blocked_id = $1)
		)
	`, a, b).Scan(&blocked)
	return blocked, err
}

func (r *PgChatRepository) SaveReport(ctx context.Context, rep chat.Report) (*chat.Report, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if !isUUID(rep.MessageID) || !isUUID(rep.ChatID) {
		return nil, chat.ErrMessageNotFound
	}
	query, args, err := psql.Insert("chat.message_report").
		Columns("message_id", "conversation_id", "reporter_id", "reason", "description", "created_at").
		Values(rep.MessageID, rep.ChatID, rep.ReporterID, rep.Reason, rep.Description, rep.CreatedAt).
		Suffix("RETURNING id::text").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build report insert: %w", err)
	}
	err = r.pool.QueryRow(ctx, query, args...).Scan(&rep.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return nil, chat.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *PgChatRepository) Ping(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	return r.pool.Ping(ctx)
}

func (r *PgChatRepository) queryMessages(ctx context.Context, query string, args ...any) ([]chat.Message, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (chat.Message, error) {
		return scanMessage(row)
	})
	if err != nil {
		return nil, err
	}
	if err := r.attachReads(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *PgChatRepository) attachReads(ctx context.Context, msgs []chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ids := make([]string, len(msgs))
	index := make(map[string]int, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
		index[m.ID] = i
	}

	rows, err := r.pool.Query(ctx, `
		SELECT message_id::text, user_id, read_at
		FROM chat.message_read
		WHERE message_id = ANY($1::uuid[])
		ORDER BY read_at, user_id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			messageID string
			entry     chat.ReadEntry
		)
		if err := rows.Scan(&messageID, &entry.UserID, &entry.ReadAt); err != nil {
			return err
		}
		if i, ok := index[messageID]; ok {
			msgs[i].ReadBy = append(msgs[i].ReadBy, entry)
		}
	}
	return rows.Err()
}

func scanConversation(row pgx.Row) (chat.Conversation, error) {
	var (
		c        chat.Conversation
		chatType string
	)
	err := row.Scan(&c.ID, &chatType, &c.Name, &c.Description, &c.Avatar, &c.PairKey,
		&c.LastMessageID, &c.LastMessageAt, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return chat.Conversation{}, err
	}
	c.Type = chat.ChatType(chatType)
	return c, nil
}

func scanMessage(row pgx.Row) (chat.Message, error) {
	var (
		m       chat.Message
		msgType string
		attURL  *string
		attMeta []byte
	)
	err := row.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Body, &msgType, &attURL, &attMeta,
		&m.ReplyToID, &m.ClientID, &m.EditedAt, &m.DeletedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return chat.Message{}, err
	}
	m.Type = chat.MessageType(msgType)
	m.State = chat.StateOf(m.EditedAt, m.DeletedAt)
	if m.Media, err = decodeMedia(attURL, attMeta); err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

// mediaMeta is the attachment_meta document; the URL lives in its own column.
type mediaMeta struct {
	FileName string   `json:"fileName,omitempty"`
	FileSize int64    `json:"fileSize,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

func encodeMedia(media *chat.MediaRef) (*string, []byte, error) {
	if media == nil || media.URL == "" {
		return nil, nil, nil
	}
	meta, err := json.Marshal(mediaMeta{
		FileName: media.FileName,
		FileSize: media.FileSize,
		MimeType: media.MimeType,
		Duration: media.Duration,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode attachment meta: %w", err)
	}
	url := media.URL
	return &url, meta, nil
}

func decodeMedia(url *string, meta []byte) (*chat.MediaRef, error) {
	if url == nil || *url == "" {
		return nil, nil
	}
	media := &chat.MediaRef{URL: *url}
	if len(meta) == 0 {
		return media, nil
	}
	var mm mediaMeta
	if err := json.Unmarshal(meta, &mm); err != nil {
		return nil, fmt.Errorf("decode attachment meta: %w", err)
	}
	media.FileName = mm.FileName
	media.FileSize = mm.FileSize
	media.MimeType = mm.MimeType
	media.Duration = mm.Duration
	return media, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func validUUIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range uniqueStrings(ids) {
		if parsed, err := uuid.Parse(id); err == nil {
			out = append(out, parsed.String())
		}
	}
	return uniqueStrings(out)
}

func uniqueStrings(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// inRequestOrder keeps the ids of requested that appear in got, preserving request order.
func inRequestOrder(requested, got []string) []string {
	if len(got) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(got))
	for _, id := range got {
		set[id] = struct{}{}
	}
	out := make([]string, 0, len(got))
	for _, id := range requested {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
