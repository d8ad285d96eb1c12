package room

import (
	"sync"

	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Registry is the explicit session registry: every live room is reachable
// only through a handle obtained here, never through package globals.
type Registry struct {
	mu    sync.RWMutex
	rooms map[model.RoomID]*Room
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[model.RoomID]*Room),
	}
}

// Register adds a room. Registering the same ID twice is an error.
func (r *Registry) Register(rm *Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[rm.ID()]; ok {
		return goerr.Wrap(model.ErrRoomExists, "room is already registered", goerr.V("room", rm.ID()))
	}
	r.rooms[rm.ID()] = rm
	return nil
}

// Get returns the room with the given ID.
func (r *Registry) Get(id model.RoomID) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrRoomNotFound, "no such room", goerr.V("room", id))
	}
	return rm, nil
}

// Delete removes a room from the registry.
func (r *Registry) Delete(id model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
}

// List returns the IDs of all registered rooms.
func (r *Registry) List() []model.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]model.RoomID, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	return ids
}
