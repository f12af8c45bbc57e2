package users

import (
	"sync"

	"github.com/google/uuid"
)

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the default UUID v4 generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// Store is a thread-safe, in-memory user store. Records are kept in a map
// keyed by id and listed in insertion order. All public methods are safe for
// concurrent use and return copies.
type Store struct {
	mu    sync.RWMutex
	users map[string]*User
	order []string
	newID func() string
}

// NewStore creates a new empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		users: make(map[string]*User),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a copy of all users in insertion order. The result is never nil.
func (s *Store) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.users[id])
	}
	return out
}

// Get returns the user with the given id, or ErrNotFound.
func (s *Store) Get(id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

// Create validates name and email, assigns a fresh id and appends the user.
func (s *Store) Create(name, email string) (User, error) {
	if err := check(newUser{Name: name, Email: email}); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for _, taken := s.users[id]; taken; _, taken = s.users[id] {
		id = s.newID()
	}
	u := &User{ID: id, Name: name, Email: email}
	s.users[id] = u
	s.order = append(s.order, id)
	return *u, nil
}

// Update applies the supplied fields of p to the user with the given id.
// The record is left untouched when validation fails.
func (s *Store) Update(id string, p Patch) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if err := check(p); err != nil {
		return User{}, err
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	return *u, nil
}

// Delete removes the user with the given id, or returns ErrNotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
