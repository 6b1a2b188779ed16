package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/example/velo/internal/models"
)

// MessagesStore persists messages and derives the conversation views.
type MessagesStore struct {
	db *gorm.DB
}

// NewMessagesStore constructs a MessagesStore.
func NewMessagesStore(db *gorm.DB) *MessagesStore {
	return &MessagesStore{db: db}
}

// RecentConversation is one row of the deduplicated recents view: the
// counterpart plus the most recent message exchanged with them.
type RecentConversation struct {
	UserID    uint      `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Append persists a new message with a server-assigned id and timestamp.
func (s *MessagesStore) Append(sender, receiver uint, body string) (*models.Message, error) {
	msg := &models.Message{
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       body,
		Timestamp:  time.Now(),
	}

	if err := s.db.Create(msg).Error; err != nil {
		return nil, wrapUnavailable(err)
	}

	return msg, nil
}

// History returns every message between the two users, ascending by
// timestamp. The query is stateless and may be repeated.
func (s *MessagesStore) History(userA, userB uint) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("timestamp asc, id asc").
		Find(&msgs).Error
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return msgs, nil
}

// Recents returns the deduplicated recent-conversations view for a user: one
// row per distinct counterpart carrying the latest exchanged message,
// ordered newest first. The SQL returns every involving row newest-first
// joined to the counterpart's username; collapsing happens in CollapseRecents.
func (s *MessagesStore) Recents(userID uint) ([]RecentConversation, error) {
	var rows []RecentConversation
	err := s.db.
		Table("messages AS m").
		Select("u.id AS user_id, u.username, m.body AS message, m.timestamp").
		Joins("JOIN users u ON u.id = CASE WHEN m.sender_id = ? THEN m.receiver_id ELSE m.sender_id END", userID).
		Where("m.sender_id = ? OR m.receiver_id = ?", userID, userID).
		Order("m.timestamp DESC, m.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return CollapseRecents(rows), nil
}

// CollapseRecents keeps the first row seen for each counterpart. Input must
// be ordered newest first, so the surviving row is always the most recent
// message exchanged with that counterpart.
func CollapseRecents(rows []RecentConversation) []RecentConversation {
	seen := make(map[uint]bool, len(rows))
	recent := make([]RecentConversation, 0, len(rows))
	for _, row := range rows {
		if seen[row.UserID] {
			continue
		}
		seen[row.UserID] = true
		recent = append(recent, row)
	}
	return recent
}

func wrapUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
