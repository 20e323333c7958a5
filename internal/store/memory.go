package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Memory is an in-process Store
type Memory struct {
	mu     sync.Mutex
	docs   map[string][]byte
	subs   map[string]map[int]*subscriber
	nextID int
	logger *log.Logger
}

// NewMemory creates an empty in-memory store
func NewMemory(logger *log.Logger) *Memory {
	return &Memory{
		docs:   make(map[string][]byte),
		subs:   make(map[string]map[int]*subscriber),
		logger: logger.WithPrefix("store"),
	}
}

func (m *Memory) Create(_ context.Context, id string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; ok {
		return fmt.Errorf("%w: %s", ErrExists, id)
	}
	m.writeLocked(id, doc)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return append([]byte(nil), doc...), nil
}

func (m *Memory) Set(_ context.Context, id string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.writeLocked(id, doc)
	return nil
}

func (m *Memory) Update(_ context.Context, id string, patch map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(current, &fields); err != nil || fields == nil {
		return fmt.Errorf("%w: %s", ErrNotObject, id)
	}
	for k, v := range patch {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("store: encode field %q: %w", k, err)
		}
		fields[k] = raw
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	m.writeLocked(id, merged)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.docs, id)
	for _, sub := range m.subs[id] {
		sub.push(Change{ID: id, Deleted: true})
	}
	m.logger.Debug("Deleted document", "id", id)
	return nil
}

func (m *Memory) Subscribe(id string, fn func(Change)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	key := m.nextID
	sub := newSubscriber(fn)
	if m.subs[id] == nil {
		m.subs[id] = make(map[int]*subscriber)
	}
	m.subs[id][key] = sub
	if doc, ok := m.docs[id]; ok {
		sub.push(Change{ID: id, Doc: doc})
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[id], key)
			if len(m.subs[id]) == 0 {
				delete(m.subs, id)
			}
			m.mu.Unlock()
			sub.stop()
		})
	}
}

// writeLocked stores a private copy of doc and fans it out
func (m *Memory) writeLocked(id string, doc []byte) {
	stored := append([]byte(nil), doc...)
	m.docs[id] = stored
	for _, sub := range m.subs[id] {
		sub.push(Change{ID: id, Doc: stored})
	}
}

// subscriber delivers changes on its own goroutine. It keeps only the
// newest undelivered change so a slow callback never blocks writers.
type subscriber struct {
	fn      func(Change)
	mu      sync.Mutex
	pending *Change
	wake    chan struct{}
	done    chan struct{}
	stopped sync.Once
}

func newSubscriber(fn func(Change)) *subscriber {
	s := &subscriber{
		fn:   fn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *subscriber) push(c Change) {
	s.mu.Lock()
	s.pending = &c
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) loop() {
	for {
		select {
		case <-s.wake:
			s.mu.Lock()
			c := s.pending
			s.pending = nil
			s.mu.Unlock()
			if c != nil {
				s.fn(*c)
			}
		case <-s.done:
			return
		}
	}
}

func (s *subscriber) stop() {
	s.stopped.Do(func() { close(s.done) })
}
