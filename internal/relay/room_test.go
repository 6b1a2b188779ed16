package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomName_Symmetric(t *testing.T) {
	pairs := [][2]uint{{1, 2}, {2, 1}, {7, 7000}, {42, 3}}
	for _, p := range pairs {
		assert.Equal(t, RoomName(p[0], p[1]), RoomName(p[1], p[0]), "pair %v", p)
	}
}

func TestRoomName_Canonical(t *testing.T) {
	assert.Equal(t, "chat_1_2", RoomName(1, 2))
	assert.Equal(t, "chat_1_2", RoomName(2, 1))
	assert.Equal(t, "chat_3_42", RoomName(42, 3))
}

func TestRoomName_DistinctPairsDoNotCollide(t *testing.T) {
	seen := map[string][2]uint{}
	for a := uint(1); a <= 12; a++ {
		for b := a + 1; b <= 12; b++ {
			name := RoomName(a, b)
			if prev, ok := seen[name]; ok {
				t.Fatalf("pairs %v and %v collide on %q", prev, [2]uint{a, b}, name)
			}
			seen[name] = [2]uint{a, b}
		}
	}
}

func TestPersonalChannel(t *testing.T) {
	assert.Equal(t, "1", PersonalChannel(1))
	assert.Equal(t, "1234567", PersonalChannel(1234567))
}
