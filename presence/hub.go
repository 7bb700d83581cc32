package presence

import "sync"

// Hub is an in-process Transport. Every join, track and leave broadcasts the
// full snapshot of the affected channel to all of its subscribers.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*hubChannel]struct{}
	seqs  map[string]uint64
}

type hubChannel struct {
	hub  *Hub
	name string
	key  string

	// deliverMu orders syncs to this channel; lastSeq is guarded by it
	deliverMu sync.Mutex
	lastSeq   uint64

	// guarded by hub.mu
	onSync   func(Snapshot)
	onStatus func(Status)
	payload  Payload
	tracked  bool
	left     bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*hubChannel]struct{}),
		seqs:  make(map[string]uint64),
	}
}

func (h *Hub) Join(name, key string) (Channel, error) {
	if name == "" || key == "" {
		return nil, ErrInvalidJoin
	}

	ch := &hubChannel{hub: h, name: name, key: key}

	h.mu.Lock()
	room, ok := h.rooms[name]
	if !ok {
		room = make(map[*hubChannel]struct{})
		h.rooms[name] = room
	}
	room[ch] = struct{}{}
	h.mu.Unlock()

	return ch, nil
}

// Snapshot returns the current membership of a channel.
func (h *Hub) Snapshot(name string) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked(name)
}

func (h *Hub) snapshotLocked(name string) Snapshot {
	snap := make(Snapshot)
	for ch := range h.rooms[name] {
		if ch.tracked {
			snap[ch.key] = append(snap[ch.key], ch.payload)
		}
	}
	return snap
}

// stampLocked takes the channel's snapshot together with its sequence number.
// Later mutations always get a higher number.
func (h *Hub) stampLocked(name string) (Snapshot, uint64) {
	h.seqs[name]++
	return h.snapshotLocked(name), h.seqs[name]
}

// broadcast delivers the channel's snapshot to every subscriber. Callbacks run
// outside h.mu so they may call back into the hub.
func (h *Hub) broadcast(name string) {
	h.mu.Lock()
	snap, seq := h.stampLocked(name)
	targets := make([]*hubChannel, 0, len(h.rooms[name]))
	listeners := make([]func(Snapshot), 0, len(h.rooms[name]))
	for ch := range h.rooms[name] {
		if ch.onSync != nil {
			targets = append(targets, ch)
			listeners = append(listeners, ch.onSync)
		}
	}
	h.mu.Unlock()

	for i, ch := range targets {
		ch.deliver(listeners[i], snap, seq)
	}
}

// deliver hands snap to fn unless a newer snapshot already reached this channel.
func (c *hubChannel) deliver(fn func(Snapshot), snap Snapshot, seq uint64) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	if seq <= c.lastSeq {
		return
	}
	c.lastSeq = seq
	fn(snap.clone())
}

func (c *hubChannel) Subscribe(onSync func(Snapshot), onStatus func(Status)) error {
	h := c.hub

	h.mu.Lock()
	if c.left {
		h.mu.Unlock()
		return ErrChannelClosed
	}
	c.onSync = onSync
	c.onStatus = onStatus
	snap, seq := h.stampLocked(c.name)
	h.mu.Unlock()

	if onStatus != nil {
		onStatus(StatusSubscribed)
	}
	if onSync != nil {
		c.deliver(onSync, snap, seq)
	}
	return nil
}

func (c *hubChannel) Track(p Payload) error {
	h := c.hub

	h.mu.Lock()
	if c.left {
		h.mu.Unlock()
		return ErrChannelClosed
	}
	c.payload = p
	c.tracked = true
	h.mu.Unlock()

	h.broadcast(c.name)
	return nil
}

func (c *hubChannel) Leave() error {
	h := c.hub

	h.mu.Lock()
	if c.left {
		h.mu.Unlock()
		return nil
	}
	c.left = true
	onStatus := c.onStatus
	c.onSync = nil
	c.onStatus = nil
	if room, ok := h.rooms[c.name]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.name)
			delete(h.seqs, c.name)
		}
	}
	h.mu.Unlock()

	if onStatus != nil {
		onStatus(StatusClosed)
	}
	h.broadcast(c.name)
	return nil
}
