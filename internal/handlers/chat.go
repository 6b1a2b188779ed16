package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/example/velo/internal/middleware"
	"github.com/example/velo/internal/models"
	"github.com/example/velo/internal/store"
)

const searchLimit = 20

// MessageReader is the slice of the messages store the query endpoints need.
type MessageReader interface {
	History(userA, userB uint) ([]models.Message, error)
	Recents(userID uint) ([]store.RecentConversation, error)
}

// UserSearcher is the slice of the users store the search endpoint needs.
type UserSearcher interface {
	Search(prefix string, excludeID uint, limit int) ([]models.User, error)
}

// ChatHandler serves the conversation query surface consumed by the chat UI.
type ChatHandler struct {
	users UserSearcher
	msgs  MessageReader
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(users UserSearcher, msgs MessageReader) *ChatHandler {
	return &ChatHandler{users: users, msgs: msgs}
}

// RecentChats returns the deduplicated recent-conversations list for the
// current user, newest first.
func (h *ChatHandler) RecentChats(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	recents, err := h.msgs.Recents(userID)
	if err != nil {
		return err
	}

	return c.JSON(recents)
}

// History returns the full ordered message history between the current user
// and the user in the path.
func (h *ChatHandler) History(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	otherID, err := strconv.ParseUint(c.Params("user_id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	msgs, err := h.msgs.History(userID, uint(otherID))
	if err != nil {
		return err
	}

	return c.JSON(msgs)
}

// SearchUsers returns up to 20 users whose username starts with the query,
// excluding the requesting user.
func (h *ChatHandler) SearchUsers(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	users, err := h.users.Search(c.Query("q"), userID, searchLimit)
	if err != nil {
		return err
	}

	results := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		results = append(results, fiber.Map{
			"id":       u.ID,
			"username": u.Username,
		})
	}

	return c.JSON(results)
}
