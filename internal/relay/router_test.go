package relay

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/velo/internal/models"
)

// fakeStore records appends and can be told to fail.
type fakeStore struct {
	appended []*models.Message
	err      error
	nextID   uint
}

func (f *fakeStore) Append(sender, receiver uint, body string) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	msg := &models.Message{
		ID:         f.nextID,
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       body,
		Timestamp:  time.Now(),
	}
	f.appended = append(f.appended, msg)
	return msg, nil
}

func decodeEnvelope(t *testing.T, frame []byte) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	return env
}

func TestRouter_SendMessageDeliversToRoomAndSignalsBothParticipants(t *testing.T) {
	store := &fakeStore{}
	router := NewRouter(store, NewHub())

	// A (id 1) watches the pair room and its own personal channel; B (id 2)
	// is only on its personal channel, as if the chat window is closed.
	connA := router.Hub().Register(8)
	connB := router.Hub().Register(8)
	router.Connect(connA, 1, true)
	router.Connect(connB, 2, true)
	router.Join(connA, RoomName(1, 2))

	msg, err := router.SendMessage(1, 2, "hi")
	require.NoError(t, err)
	assert.Equal(t, uint(1), msg.SenderID)
	assert.Equal(t, uint(2), msg.ReceiverID)
	require.Len(t, store.appended, 1)

	// Frames on one connection follow publish order: the room event first,
	// then the personal-channel signal.
	env := decodeEnvelope(t, recvFrame(t, connA))
	assert.Equal(t, EventReceiveMessage, env.Event)

	var payload MessagePayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, uint(1), payload.Sender)
	assert.Equal(t, uint(2), payload.Receiver)
	assert.Equal(t, "hi", payload.Message)
	assert.False(t, payload.Timestamp.IsZero())

	env = decodeEnvelope(t, recvFrame(t, connA))
	assert.Equal(t, EventUpdateRecents, env.Event)
	assert.Empty(t, env.Data)

	// B only gets the recents hint; the message itself is reconciled via the
	// history query.
	env = decodeEnvelope(t, recvFrame(t, connB))
	assert.Equal(t, EventUpdateRecents, env.Event)

	select {
	case frame := <-connB.Outbound():
		t.Fatalf("unexpected extra frame for B: %s", frame)
	default:
	}
}

func TestRouter_SendMessageRoomIsSymmetric(t *testing.T) {
	store := &fakeStore{}
	router := NewRouter(store, NewHub())

	conn := router.Hub().Register(8)
	router.Join(conn, RoomName(2, 1))

	_, err := router.SendMessage(1, 2, "hello")
	require.NoError(t, err)

	env := decodeEnvelope(t, recvFrame(t, conn))
	assert.Equal(t, EventReceiveMessage, env.Event)
}

func TestRouter_AppendFailureMeansNoDelivery(t *testing.T) {
	store := &fakeStore{err: errors.New("store unavailable: down")}
	router := NewRouter(store, NewHub())

	conn := router.Hub().Register(8)
	router.Connect(conn, 2, true)
	router.Join(conn, RoomName(1, 2))

	_, err := router.SendMessage(1, 2, "hi")
	require.Error(t, err)

	select {
	case frame := <-conn.Outbound():
		t.Fatalf("message delivered despite failed append: %s", frame)
	default:
	}
}

func TestRouter_AnonymousConnectGetsNoSubscription(t *testing.T) {
	store := &fakeStore{}
	router := NewRouter(store, NewHub())

	conn := router.Hub().Register(8)
	router.Connect(conn, 0, false)

	_, err := router.SendMessage(1, 0, "hi")
	require.NoError(t, err)

	select {
	case frame := <-conn.Outbound():
		t.Fatalf("anonymous connection received %s", frame)
	default:
	}
}

func TestRouter_OfflineRecipientMissesLiveEvent(t *testing.T) {
	store := &fakeStore{}
	router := NewRouter(store, NewHub())

	// Nobody connected at all: the send still persists.
	msg, err := router.SendMessage(1, 2, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Body)
	require.Len(t, store.appended, 1)
}
