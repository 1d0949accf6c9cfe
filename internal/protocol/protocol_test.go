package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Francoo86/Implementaciones-MAS/internal/schedule"
)

func TestMailbox(t *testing.T) {
	t.Run("delivers up to capacity then drops", func(t *testing.T) {
		mailbox := NewMailbox(2)
		assert.True(t, mailbox.Deliver(Refuse{CorrelationID: "a"}))
		assert.True(t, mailbox.Deliver(Refuse{CorrelationID: "b"}))
		assert.False(t, mailbox.Deliver(Refuse{CorrelationID: "c"}), "full mailbox must drop")

		msg := <-mailbox.Receive()
		assert.Equal(t, "a", msg.Correlation())
	})

	t.Run("drops after close, queued messages drain", func(t *testing.T) {
		mailbox := NewMailbox(4)
		require.True(t, mailbox.Deliver(Confirm{CorrelationID: "x"}))
		mailbox.Close()
		assert.False(t, mailbox.Deliver(Confirm{CorrelationID: "y"}))

		msg, ok := <-mailbox.Receive()
		require.True(t, ok)
		assert.Equal(t, "x", msg.Correlation())

		_, ok = <-mailbox.Receive()
		assert.False(t, ok, "channel must be closed once drained")
	})

	t.Run("close is idempotent", func(t *testing.T) {
		mailbox := NewMailbox(1)
		mailbox.Close()
		assert.NotPanics(t, mailbox.Close)
	})
}

func TestRegistry(t *testing.T) {
	t.Run("lookup returns registration-ordered snapshot", func(t *testing.T) {
		registry := NewRegistry()
		for _, id := range []string{"R1", "R2", "R3"} {
			require.NoError(t, registry.Register(id, CapabilityRoom, NewMailbox(1)))
		}
		require.NoError(t, registry.Register("T1", CapabilityTeacher, NewMailbox(1)))

		rooms := registry.Lookup(CapabilityRoom)
		require.Len(t, rooms, 3)
		assert.Equal(t, "R1", rooms[0].ID)
		assert.Equal(t, "R3", rooms[2].ID)
		assert.Len(t, registry.Lookup(CapabilityTeacher), 1)

		// The snapshot must survive a later deregistration
		registry.Deregister("R2")
		assert.Len(t, rooms, 3)
		assert.Len(t, registry.Lookup(CapabilityRoom), 2)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register("R1", CapabilityRoom, NewMailbox(1)))
		assert.Error(t, registry.Register("R1", CapabilityRoom, NewMailbox(1)))
	})

	t.Run("deregister of unknown id is a no-op", func(t *testing.T) {
		registry := NewRegistry()
		assert.NotPanics(t, func() { registry.Deregister("ghost") })
	})
}

func TestMessageKinds(t *testing.T) {
	slot := schedule.TimeSlot{Day: schedule.Monday, Block: 1}
	messages := []Message{
		Request{CorrelationID: "c"},
		Offer{CorrelationID: "c", Slot: slot},
		Refuse{CorrelationID: "c"},
		Accept{CorrelationID: "c", Slot: slot},
		Reject{CorrelationID: "c"},
		Confirm{CorrelationID: "c", Slot: slot},
	}
	kinds := map[Kind]bool{}
	for _, msg := range messages {
		assert.Equal(t, "c", msg.Correlation())
		assert.NotEqual(t, "unknown", msg.Kind().String())
		kinds[msg.Kind()] = true
	}
	assert.Len(t, kinds, len(messages), "kinds must be distinct")

	grant := TurnGrant{Position: 0}
	assert.Equal(t, KindTurnGrant, grant.Kind())
	assert.Empty(t, grant.Correlation())
}

func TestNewCorrelationID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewCorrelationID()
		assert.NotEmpty(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
