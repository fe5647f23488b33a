package canvas

import (
	"container/list"
	"sync"

	"github.com/google/uuid"
)

// Store is the insertion-ordered set of tiles on the canvas. Readers such as
// a running execution may snapshot it while the front end keeps editing.
type Store struct {
	mu    sync.RWMutex
	order *list.List
	byID  map[string]*list.Element
	next  int
	newID func() string
}

func NewStore() *Store {
	return NewStoreWithIDs(func() string { return "block-" + uuid.NewString() })
}

// NewStoreWithIDs builds a store with a custom id source. Ids colliding with
// a live tile are regenerated.
func NewStoreWithIDs(newID func() string) *Store {
	return &Store{
		order: list.New(),
		byID:  map[string]*list.Element{},
		newID: newID,
	}
}

// Add appends a tile. Duplicate kind/name pairs are independent tiles.
func (s *Store) Add(kind Kind, name, amount string) Tile {
	return s.Place(TileInput{Kind: kind, Name: name, Amount: amount})
}

func (s *Store) Place(in TileInput) Tile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := s.newID()
	for _, taken := s.byID[id]; taken; _, taken = s.byID[id] {
		id = s.newID()
	}
	pos := defaultPosition(s.next)
	if in.Position != nil {
		pos = *in.Position
	}
	tile := Tile{
		ID:       id,
		Kind:     in.Kind,
		Name:     in.Name,
		Amount:   in.Amount,
		Order:    s.next,
		Position: pos,
	}
	s.byID[id] = s.order.PushBack(tile)
	return tile
}

// Remove deletes the tile with the given id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.byID[id]
	if !ok {
		return false
	}
	s.order.Remove(el)
	delete(s.byID, id)
	return true
}

// SetAmount replaces the raw amount input of a tile.
func (s *Store) SetAmount(id, amount string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.byID[id]
	if !ok {
		return false
	}
	tile := el.Value.(Tile)
	tile.Amount = amount
	el.Value = tile
	return true
}

func (s *Store) Get(id string) (Tile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.byID[id]
	if !ok {
		return Tile{}, false
	}
	return el.Value.(Tile), true
}

// Clear empties the store and resets the order counter.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Init()
	s.byID = map[string]*list.Element{}
	s.next = 0
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}

// All returns a snapshot of the tiles in insertion order.
func (s *Store) All() []Tile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Tile, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(Tile))
	}
	return out
}
