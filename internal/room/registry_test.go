// internal/room/registry_test.go
package room

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jomha/internal/game"
)

func newTestRegistry() *Registry {
	return NewRegistry(rand.New(rand.NewSource(1)))
}

func TestRegistry_CreateAndGet(t *testing.T) {
	reg := newTestRegistry()

	r1 := reg.Create(ThiefCatcher)
	r2 := reg.Create(IndianPoker)

	assert.Len(t, r1.Code, 6)
	assert.NotEqual(t, r1.Code, r2.Code)
	assert.Equal(t, 2, reg.Count())

	// Lookup works across game-type tables.
	got, err := reg.Get(r2.Code)
	require.NoError(t, err)
	assert.Same(t, r2, got)

	_, err = reg.Get("NOPE42")
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestRegistry_Delete(t *testing.T) {
	reg := newTestRegistry()
	r := reg.Create(ThiefCatcher)

	reg.Delete(r.Code)
	_, err := reg.Get(r.Code)
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
	assert.Zero(t, reg.Count())
}

func TestRegistry_MigrateKeepsCode(t *testing.T) {
	reg := newTestRegistry()
	r := reg.Create(ThiefCatcher)
	code := r.Code

	reg.Migrate(r, IndianPoker)

	assert.Equal(t, IndianPoker, r.Type)
	got, err := reg.Get(code)
	require.NoError(t, err)
	assert.Same(t, r, got)
	assert.Equal(t, 1, reg.Count())
}

func TestGenerateCode_Charset(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		code := GenerateCode(rng)
		require.Len(t, code, 6)
		for _, ch := range code {
			assert.Containsf(t, codeAlphabet, string(ch), "code %s", code)
		}
		// The ambiguous characters stay out of codes.
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "I")
		assert.NotContains(t, code, "1")
	}
}

func TestSanitizeNickname(t *testing.T) {
	assert.Equal(t, "player", SanitizeNickname("  player  "))
	assert.Equal(t, "", SanitizeNickname("   "))
	assert.Equal(t, strings.Repeat("a", 12), SanitizeNickname(strings.Repeat("a", 40)))
}

func TestRandomNickname_NonEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 20; i++ {
		nick := RandomNickname(rng)
		assert.NotEmpty(t, nick)
		assert.LessOrEqual(t, len(nick), maxNicknameLen)
	}
}
