// internal/room/registry.go
package room

import (
	"math/rand"
	"sync"

	"jomha/internal/game"
)

// Registry is the in-memory index of live rooms, one table per game type.
// Its mutex guards only the tables and the code RNG; room contents are
// guarded by each room's own mutex, and the lock order is always room.Mu
// before registry.mu never the reverse.
type Registry struct {
	mu     sync.Mutex
	tables map[GameType]map[string]*Room
	rng    *rand.Rand
}

// NewRegistry builds an empty registry. The RNG seeds room codes only; game
// engines carry their own.
func NewRegistry(rng *rand.Rand) *Registry {
	return &Registry{
		tables: map[GameType]map[string]*Room{
			ThiefCatcher: {},
			IndianPoker:  {},
		},
		rng: rng,
	}
}

// Create allocates a room under a freshly generated code that is unique
// across both tables.
func (reg *Registry) Create(gameType GameType) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for {
		code = GenerateCode(reg.rng)
		if reg.lookup(code) == nil {
			break
		}
	}
	r := New(code, gameType)
	reg.tables[gameType][code] = r
	return r
}

// Get finds a room by code regardless of game type.
func (reg *Registry) Get(code string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r := reg.lookup(code); r != nil {
		return r, nil
	}
	return nil, game.ErrRoomNotFound
}

func (reg *Registry) lookup(code string) *Room {
	for _, table := range reg.tables {
		if r, ok := table[code]; ok {
			return r
		}
	}
	return nil
}

// Delete removes a room once its last player leaves.
func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, table := range reg.tables {
		delete(table, code)
	}
}

// Migrate moves a room between game-type tables when the host switches the
// game, keeping the code stable. The caller holds the room's mutex and has
// already verified the room is in the waiting phase.
func (reg *Registry) Migrate(r *Room, to GameType) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.tables[r.Type], r.Code)
	r.Type = to
	reg.tables[to][r.Code] = r
}

// Count reports the number of live rooms across all tables.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	n := 0
	for _, table := range reg.tables {
		n += len(table)
	}
	return n
}
