package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/velo/internal/middleware"
	"github.com/example/velo/internal/models"
	"github.com/example/velo/internal/store"
	"github.com/example/velo/internal/utils"
)

// fakeReader records query arguments and serves canned results.
type fakeReader struct {
	historyA, historyB uint
	history            []models.Message

	recentsUser uint
	recents     []store.RecentConversation
}

func (f *fakeReader) History(a, b uint) ([]models.Message, error) {
	f.historyA, f.historyB = a, b
	return f.history, nil
}

func (f *fakeReader) Recents(userID uint) ([]store.RecentConversation, error) {
	f.recentsUser = userID
	return f.recents, nil
}

type fakeSearcher struct {
	prefix    string
	excludeID uint
	limit     int
	results   []models.User
}

func (f *fakeSearcher) Search(prefix string, excludeID uint, limit int) ([]models.User, error) {
	f.prefix, f.excludeID, f.limit = prefix, excludeID, limit
	return f.results, nil
}

func newChatApp(t *testing.T, searcher *fakeSearcher, reader *fakeReader) *fiber.App {
	t.Helper()
	cfg := testConfig()
	h := NewChatHandler(searcher, reader)
	app := fiber.New()
	api := app.Group("/api", middleware.AuthMiddleware(cfg))
	api.Get("/chats/recent", h.RecentChats)
	api.Get("/messages/:user_id", h.History)
	api.Get("/users/search", h.SearchUsers)
	return app
}

func authedRequest(t *testing.T, target string, userID uint) *http.Request {
	t.Helper()
	token, err := utils.GenerateToken("test-secret", userID, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRecentChats(t *testing.T) {
	reader := &fakeReader{recents: []store.RecentConversation{
		{UserID: 3, Username: "carol", Message: "see you", Timestamp: time.Now()},
		{UserID: 2, Username: "bob", Message: "later", Timestamp: time.Now().Add(-time.Minute)},
	}}
	app := newChatApp(t, &fakeSearcher{}, reader)

	resp, err := app.Test(authedRequest(t, "/api/chats/recent", 1))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, uint(1), reader.recentsUser)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var recents []store.RecentConversation
	require.NoError(t, json.Unmarshal(raw, &recents))
	require.Len(t, recents, 2)
	assert.Equal(t, "carol", recents[0].Username)
}

func TestHistory(t *testing.T) {
	reader := &fakeReader{history: []models.Message{
		{ID: 1, SenderID: 1, ReceiverID: 2, Body: "hi", Timestamp: time.Now()},
	}}
	app := newChatApp(t, &fakeSearcher{}, reader)

	resp, err := app.Test(authedRequest(t, "/api/messages/2", 1))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, uint(1), reader.historyA)
	assert.Equal(t, uint(2), reader.historyB)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var msgs []models.Message
	require.NoError(t, json.Unmarshal(raw, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Body)
}

func TestHistory_BadUserID(t *testing.T) {
	app := newChatApp(t, &fakeSearcher{}, &fakeReader{})

	resp, err := app.Test(authedRequest(t, "/api/messages/abc", 1))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSearchUsers(t *testing.T) {
	searcher := &fakeSearcher{results: []models.User{
		{BaseModel: models.BaseModel{ID: 2}, Username: "bob"},
		{BaseModel: models.BaseModel{ID: 5}, Username: "bonnie"},
	}}
	app := newChatApp(t, searcher, &fakeReader{})

	resp, err := app.Test(authedRequest(t, "/api/users/search?q=bo", 1))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, "bo", searcher.prefix)
	assert.Equal(t, uint(1), searcher.excludeID)
	assert.Equal(t, 20, searcher.limit)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var results []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &results))
	require.Len(t, results, 2)
	assert.Equal(t, "bob", results[0]["username"])
	// Only id and username are exposed to the search UI.
	assert.Len(t, results[0], 2)
}

func TestQuerySurface_RequiresAuth(t *testing.T) {
	app := newChatApp(t, &fakeSearcher{}, &fakeReader{})

	for _, target := range []string{"/api/chats/recent", "/api/messages/2", "/api/users/search?q=a"} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, target)
	}
}
