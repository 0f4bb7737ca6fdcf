package web

import (
	"context"
	"testing"
	"time"

	"github.com/etnz/psw/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestSessions(t *testing.T) {
	clk := &clock{now: time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)}
	s := NewSessions(time.Hour)
	s.Now = clk.Now

	alice := s.Start(store.User{ID: 1, Username: "alice", RoleID: store.RoleAdmin, Format: "sv"})
	bob := s.Start(store.User{ID: 2, Username: "bob", RoleID: store.RoleUser})
	assert.NotEqual(t, alice.Token, bob.Token)
	assert.True(t, alice.IsAdmin())
	assert.False(t, bob.IsAdmin())

	// Each request extends the session.
	clk.Advance(50 * time.Minute)
	_, ok := s.Get(alice.Token)
	require.True(t, ok)
	clk.Advance(50 * time.Minute)
	got, ok := s.Get(alice.Token)
	require.True(t, ok)
	assert.Equal(t, "alice", got.Username)

	_, ok = s.Get(bob.Token)
	assert.False(t, ok, "bob's session expired")

	s.Update(1, func(sess *Session) { sess.Format = "en" })
	got, _ = s.Get(alice.Token)
	assert.Equal(t, "en", got.Format)

	s.End(alice.Token)
	_, ok = s.Get(alice.Token)
	assert.False(t, ok)

	_, ok = s.Get("unknown")
	assert.False(t, ok)
}

func TestSessionsSweepAndEndUser(t *testing.T) {
	clk := &clock{now: time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)}
	s := NewSessions(time.Hour)
	s.Now = clk.Now

	s.Start(store.User{ID: 1})
	clk.Advance(2 * time.Hour)
	a := s.Start(store.User{ID: 2})
	b := s.Start(store.User{ID: 2})
	assert.Equal(t, 1, s.Sweep())

	s.EndUser(2)
	_, ok := s.Get(a.Token)
	assert.False(t, ok)
	_, ok = s.Get(b.Token)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Sweep())
}

func TestLimiter(t *testing.T) {
	clk := &clock{now: time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)}
	l := NewLimiter(3)
	l.Now = clk.Now

	for range 3 {
		assert.True(t, l.Allow("alice"))
		l.Fail("alice")
		clk.Advance(time.Minute)
	}
	assert.False(t, l.Allow("alice"))
	assert.True(t, l.Allow("bob"), "failures are counted per username")

	// The first failure leaves the window.
	clk.Advance(LoginWindow - 3*time.Minute)
	assert.True(t, l.Allow("alice"))
	l.Fail("alice")
	assert.False(t, l.Allow("alice"))

	l.Reset("alice")
	assert.True(t, l.Allow("alice"))
}

func TestSessionContext(t *testing.T) {
	_, ok := SessionFrom(context.Background())
	assert.False(t, ok)

	ctx := withSession(context.Background(), Session{UserID: 3, Username: "carol"})
	got, ok := SessionFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "carol", got.Username)
}
