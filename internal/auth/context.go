package auth

import (
	"sort"
	"sync"
)

// Listener is told about every change of signed-in user. ok is false after
// a sign-out.
type Listener func(u User, ok bool)

// Context holds the current session. Set is the only way to change it;
// subscribers are notified once per change of user id, never for a token
// refresh of the same user.
type Context struct {
	mu      sync.RWMutex
	session *Session

	// notifyMu serialises Set calls so listeners see changes in order
	notifyMu  sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func NewContext() *Context {
	return &Context{listeners: make(map[int]Listener)}
}

// Set replaces the session; nil signs out. Listeners must not call Set.
func (c *Context) Set(s *Session) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	var next *Session
	if s != nil {
		cp := *s
		next = &cp
	}

	c.mu.Lock()
	prevID := sessionUserID(c.session)
	c.session = next
	changed := prevID != sessionUserID(next)
	var listeners []Listener
	if changed {
		listeners = c.sortedListeners()
	}
	c.mu.Unlock()

	if !changed {
		return
	}
	u, ok := userOf(next)
	for _, fn := range listeners {
		fn(u, ok)
	}
}

// Subscribe registers fn and returns a func that removes it.
func (c *Context) Subscribe(fn Listener) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// CurrentUser returns the signed-in user, if any.
func (c *Context) CurrentUser() (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return userOf(c.session)
}

// Session returns a copy of the current session, or nil.
func (c *Context) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	cp := *c.session
	return &cp
}

// IsAuthenticated reports whether a user is signed in.
func (c *Context) IsAuthenticated() bool {
	_, ok := c.CurrentUser()
	return ok
}

// sortedListeners returns listeners in registration order; c.mu must be held.
func (c *Context) sortedListeners() []Listener {
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = c.listeners[id]
	}
	return out
}

func sessionUserID(s *Session) string {
	if s == nil {
		return ""
	}
	return s.User.ID
}

func userOf(s *Session) (User, bool) {
	if s == nil || s.User.ID == "" {
		return User{}, false
	}
	return s.User, true
}
