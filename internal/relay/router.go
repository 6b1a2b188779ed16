package relay

import (
	"github.com/example/velo/internal/models"
)

// MessageStore is the slice of the messages store the router depends on.
type MessageStore interface {
	Append(sender, receiver uint, body string) (*models.Message, error)
}

// Router owns the connect/join/send semantics on top of the hub.
type Router struct {
	msgs MessageStore
	hub  *Hub
}

// NewRouter constructs a Router.
func NewRouter(msgs MessageStore, hub *Hub) *Router {
	return &Router{msgs: msgs, hub: hub}
}

// Hub exposes the underlying hub.
func (r *Router) Hub() *Hub { return r.hub }

// Connect subscribes an authenticated connection to its personal channel.
// Anonymous connections get no subscription.
func (r *Router) Connect(conn *Conn, userID uint, authenticated bool) {
	if !authenticated {
		return
	}
	r.hub.Subscribe(conn, PersonalChannel(userID))
}

// Join subscribes the connection to an arbitrary named channel.
func (r *Router) Join(conn *Conn, room string) {
	r.hub.Subscribe(conn, room)
}

// SendMessage persists the message, then fans the delivery event out to the
// pair's room and signals both participants' personal channels to re-fetch
// their recents. Persistence comes first: if the append fails nothing is
// delivered, and the error is surfaced unchanged with no retry.
func (r *Router) SendMessage(sender, receiver uint, body string) (*models.Message, error) {
	msg, err := r.msgs.Append(sender, receiver, body)
	if err != nil {
		return nil, err
	}

	frame, err := marshalEvent(EventReceiveMessage, MessagePayload{
		Sender:    msg.SenderID,
		Receiver:  msg.ReceiverID,
		Message:   msg.Body,
		Timestamp: msg.Timestamp,
	})
	if err != nil {
		return msg, err
	}
	r.hub.Publish(RoomName(sender, receiver), frame)

	signal, err := marshalEvent(EventUpdateRecents, nil)
	if err != nil {
		return msg, err
	}
	r.hub.Publish(PersonalChannel(sender), signal)
	r.hub.Publish(PersonalChannel(receiver), signal)

	return msg, nil
}
