// internal/room/code.go
package room

import (
	"fmt"
	"math/rand"
	"strings"
)

// codeAlphabet omits 0/O/1/I so codes survive being read aloud or copied by
// hand.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// GenerateCode produces one candidate room code. Uniqueness is the
// registry's job; this is just the alphabet walk.
func GenerateCode(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[rng.Intn(len(codeAlphabet))])
	}
	return b.String()
}

const maxNicknameLen = 12

var (
	nickAdjectives = []string{
		"Lucky", "Sneaky", "Brave", "Quiet", "Swift",
		"Clever", "Jolly", "Sly", "Bold", "Calm",
	}
	nickAnimals = []string{
		"Fox", "Owl", "Cat", "Wolf", "Bear",
		"Hawk", "Otter", "Crow", "Hare", "Lynx",
	}
)

// RandomNickname builds a placeholder name for players who join without one.
func RandomNickname(rng *rand.Rand) string {
	return fmt.Sprintf("%s%s%d",
		nickAdjectives[rng.Intn(len(nickAdjectives))],
		nickAnimals[rng.Intn(len(nickAnimals))],
		rng.Intn(10))
}

// SanitizeNickname trims whitespace and clamps the name to the display
// limit. An empty result means the caller should assign a random name.
func SanitizeNickname(name string) string {
	name = strings.TrimSpace(name)
	if runes := []rune(name); len(runes) > maxNicknameLen {
		name = string(runes[:maxNicknameLen])
	}
	return name
}
