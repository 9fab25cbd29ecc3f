package adapter

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/database"
	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

// TestPgChatRepository runs against a disposable database named by TEST_DB_URL.
func TestPgChatRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := database.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool, slog.New(slog.NewTextHandler(io.Discard, nil))))

	runRepositoryContract(t, func(t *testing.T) repository.ChatRepository {
		_, err := pool.Exec(context.Background(),
			"TRUNCATE chat.message_report, chat.block, chat.message_read, chat.message, chat.participant, chat.conversation CASCADE")
		require.NoError(t, err)
		return NewPgChatRepository(pool)
	})
}

func TestMediaRoundTrip(t *testing.T) {
	d := 3.5
	url, meta, err := encodeMedia(&chat.MediaRef{URL: "https://cdn/a.mp3", MimeType: "audio/mpeg", Duration: &d})
	require.NoError(t, err)
	require.NotNil(t, url)

	media, err := decodeMedia(url, meta)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.mp3", media.URL)
	assert.Equal(t, "audio/mpeg", media.MimeType)
	require.NotNil(t, media.Duration)
	assert.Equal(t, 3.5, *media.Duration)

	url, meta, err = encodeMedia(nil)
	require.NoError(t, err)
	assert.Nil(t, url)
	assert.Nil(t, meta)
}

func TestPagingHelpers(t *testing.T) {
	limit, offset := normalizePage(0, -3)
	assert.Equal(t, defaultPageSize, limit)
	assert.Equal(t, 0, offset)

	limit, _ = normalizePage(10_000, 0)
	assert.Equal(t, maxPageSize, limit)

	assert.Equal(t, []string{"b", "a"}, inRequestOrder([]string{"b", "x", "a"}, []string{"a", "b"}))
	assert.Nil(t, inRequestOrder([]string{"a"}, nil))

	id := "6F9619FF-8B86-D011-B42D-00C04FC964FF"
	assert.Equal(t, []string{"6f9619ff-8b86-d011-b42d-00c04fc964ff"}, validUUIDs([]string{id, "nope", id}))
}
