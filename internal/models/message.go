package models

import (
	"time"
)

// Message is a single direct message between two users. Rows are immutable
// once persisted; the server assigns the id and timestamp.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"index:idx_messages_pair" json:"sender_id"`
	ReceiverID uint      `gorm:"index:idx_messages_pair" json:"receiver_id"`
	Body       string    `json:"message"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
}
