package auth

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextStartsSignedOut(t *testing.T) {
	c := NewContext()

	_, ok := c.CurrentUser()
	assert.False(t, ok)
	assert.Nil(t, c.Session())
	assert.False(t, c.IsAuthenticated())
}

func TestContextNotifiesOncePerUserChange(t *testing.T) {
	c := NewContext()

	var got []string
	cancel := c.Subscribe(func(u User, ok bool) {
		if ok {
			got = append(got, u.ID)
		} else {
			got = append(got, "<none>")
		}
	})
	defer cancel()

	c.Set(&Session{AccessToken: "a", User: User{ID: "u1"}})
	// Token refresh of the same user is not a change
	c.Set(&Session{AccessToken: "b", User: User{ID: "u1"}})
	c.Set(&Session{AccessToken: "c", User: User{ID: "u2"}})
	c.Set(nil)
	c.Set(nil)

	assert.Equal(t, []string{"u1", "u2", "<none>"}, got)
}

func TestContextUnsubscribe(t *testing.T) {
	c := NewContext()

	calls := 0
	cancel := c.Subscribe(func(User, bool) { calls++ })
	c.Set(&Session{User: User{ID: "u1"}})
	cancel()
	cancel()
	c.Set(nil)

	assert.Equal(t, 1, calls)
}

func TestContextListenersInRegistrationOrder(t *testing.T) {
	c := NewContext()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		c.Subscribe(func(User, bool) { order = append(order, i) })
	}
	c.Set(&Session{User: User{ID: "u1"}})

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestContextSessionIsCopied(t *testing.T) {
	c := NewContext()
	s := &Session{AccessToken: "a", User: User{ID: "u1"}}
	c.Set(s)

	s.AccessToken = "mutated"
	got := c.Session()
	require.NotNil(t, got)
	assert.Equal(t, "a", got.AccessToken)

	got.AccessToken = "also mutated"
	assert.Equal(t, "a", c.Session().AccessToken)
}

func TestContextConcurrentSet(t *testing.T) {
	c := NewContext()

	var mu sync.Mutex
	notified := 0
	c.Subscribe(func(User, bool) {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Set(&Session{User: User{ID: "same"}})
			_, _ = c.CurrentUser()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, notified)
}
