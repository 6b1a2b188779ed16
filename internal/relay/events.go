package relay

import (
	"encoding/json"
	"time"
)

// Event names on the wire. Inbound and outbound frames share the same
// envelope shape.
const (
	EventJoin           = "join"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventUpdateRecents  = "update_recents"
)

// Envelope is the JSON frame exchanged over a connection.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinPayload is the body of an inbound join frame.
type JoinPayload struct {
	Room string `json:"room"`
}

// MessagePayload is the body of both inbound send_message frames and
// outbound receive_message frames.
type MessagePayload struct {
	Sender    uint      `json:"sender"`
	Receiver  uint      `json:"receiver"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

func marshalEvent(name string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Envelope{Event: name, Data: raw})
}
