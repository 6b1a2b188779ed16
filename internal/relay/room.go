// Package relay routes persisted messages to live WebSocket connections. The
// Hub owns the channel-membership table; the Router translates a send into
// the append-then-publish sequence.
package relay

import (
	"fmt"
	"strconv"
)

// RoomName derives the canonical broadcast channel for an unordered pair of
// user ids. It is symmetric and deterministic, and because ids are distinct
// integers no two distinct pairs collide.
func RoomName(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("chat_%d_%d", a, b)
}

// PersonalChannel names the out-of-band signal channel for a single user.
func PersonalChannel(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
