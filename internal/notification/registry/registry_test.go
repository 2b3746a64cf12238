// internal/notification/registry/registry_test.go
package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSession struct {
	id string
}

func (f *fakeSession) ID() string {
	return f.id
}

func (f *fakeSession) Send(_ []byte) error {
	return nil
}

func TestRegistry_AddAndSessions(t *testing.T) {
	r := New()

	a := &fakeSession{id: "session-a"}
	b := &fakeSession{id: "session-b"}

	r.Add("u1", a)
	r.Add("u1", b)
	r.Add("u2", a)

	assert.Len(t, r.Sessions("u1"), 2)
	assert.Len(t, r.Sessions("u2"), 1)
	assert.Nil(t, r.Sessions("u3"))
	assert.Equal(t, 2, r.Users())
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_AddIsIdempotent(t *testing.T) {
	r := New()
	s := &fakeSession{id: "session-a"}

	r.Add("u1", s)
	r.Add("u1", s)

	assert.Len(t, r.Sessions("u1"), 1)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RemoveDropsEmptyEntry(t *testing.T) {
	r := New()
	a := &fakeSession{id: "session-a"}
	b := &fakeSession{id: "session-b"}

	r.Add("u1", a)
	r.Add("u1", b)

	r.Remove("u1", a.ID())
	assert.True(t, r.Contains("u1"))
	assert.Len(t, r.Sessions("u1"), 1)

	// Last session gone: the user entry disappears entirely, no memory is
	// retained for offline users.
	r.Remove("u1", b.ID())
	assert.False(t, r.Contains("u1"))
	assert.Equal(t, 0, r.Users())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_RemoveAbsentIsNoOp(t *testing.T) {
	r := New()

	r.Remove("ghost", "session-x")
	assert.Equal(t, 0, r.Users())

	r.Add("u1", &fakeSession{id: "session-a"})
	r.Remove("u1", "session-x")
	assert.True(t, r.Contains("u1"))
}

func TestRegistry_ConcurrentConnectDisconnect(t *testing.T) {
	r := New()

	const users = 8
	const sessionsPerUser = 25

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		for s := 0; s < sessionsPerUser; s++ {
			wg.Add(1)
			go func(u, s int) {
				defer wg.Done()
				userID := fmt.Sprintf("u%d", u)
				session := &fakeSession{id: fmt.Sprintf("u%d-s%d", u, s)}
				r.Add(userID, session)
				r.Sessions(userID)
				r.Remove(userID, session.ID())
			}(u, s)
		}
	}
	wg.Wait()

	assert.Equal(t, 0, r.Users())
	assert.Equal(t, 0, r.Len())
}
