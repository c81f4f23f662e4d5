package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerN(t *testing.T, hub *Hub, n int) []*Client {
	t.Helper()
	out := make([]*Client, n)
	for i := range out {
		c, err := hub.Register(nil)
		require.NoError(t, err)
		out[i] = c
	}
	return out
}

// drain returns every frame currently queued for c.
func drain(c *Client) []Frame {
	var frames []Frame
	for {
		select {
		case raw, ok := <-c.Send:
			if !ok {
				return frames
			}
			var f Frame
			if err := json.Unmarshal(raw, &f); err == nil {
				frames = append(frames, f)
			}
		default:
			return frames
		}
	}
}

func TestHub_NewCommentReachesEveryPeerButSender(t *testing.T) {
	hub := NewHub(HubConfig{})
	clients := registerN(t, hub, 3)
	a, b, c := clients[0], clients[1], clients[2]

	msg := []byte(`{"type":"new_comment","postId":7,"comment":{"id":3,"content":"hi"}}`)
	require.NoError(t, hub.HandleMessage(context.Background(), a, msg))

	assert.Empty(t, drain(a))
	for _, peer := range []*Client{b, c} {
		frames := drain(peer)
		require.Len(t, frames, 1)
		assert.Equal(t, EventCommentAdded, frames[0].Type)
		assert.JSONEq(t, `7`, string(frames[0].PostID))
		assert.JSONEq(t, `{"id":3,"content":"hi"}`, string(frames[0].Comment))
	}
}

func TestHub_DisconnectedPeerIsSkipped(t *testing.T) {
	hub := NewHub(HubConfig{})
	clients := registerN(t, hub, 3)
	a, b, c := clients[0], clients[1], clients[2]

	hub.UnregisterClient(b)
	assert.Equal(t, 2, hub.Len())

	msg := []byte(`{"type":"new_reaction","postId":"7","reaction":{"type":"love"}}`)
	require.NoError(t, hub.HandleMessage(context.Background(), a, msg))

	assert.Empty(t, drain(b))
	frames := drain(c)
	require.Len(t, frames, 1)
	assert.Equal(t, EventReactionAdded, frames[0].Type)
	assert.JSONEq(t, `{"type":"love"}`, string(frames[0].Reaction))
	assert.Empty(t, drain(a))
}

func TestHub_JoinRoomRepliesToSenderOnly(t *testing.T) {
	hub := NewHub(HubConfig{})
	clients := registerN(t, hub, 2)

	require.NoError(t, hub.HandleMessage(context.Background(), clients[0], []byte(`{"type":"join_room","room":"general"}`)))

	frames := drain(clients[0])
	require.Len(t, frames, 1)
	assert.Equal(t, EventJoinedRoom, frames[0].Type)
	assert.JSONEq(t, `"general"`, string(frames[0].Room))
	assert.Equal(t, "general", clients[0].Room())
	assert.Empty(t, drain(clients[1]))
}

func TestHub_JoinRoomEchoesNonStringRooms(t *testing.T) {
	hub := NewHub(HubConfig{})
	clients := registerN(t, hub, 1)

	require.NoError(t, hub.HandleMessage(context.Background(), clients[0], []byte(`{"type":"join_room","room":12}`)))
	frames := drain(clients[0])
	require.Len(t, frames, 1)
	assert.JSONEq(t, `12`, string(frames[0].Room))
	assert.Equal(t, "12", clients[0].Room())

	require.NoError(t, hub.HandleMessage(context.Background(), clients[0], []byte(`{"type":"join_room","room":{"post":3}}`)))
	frames = drain(clients[0])
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"post":3}`, string(frames[0].Room))
}

func TestHub_RoomsDoNotScopeDeliveryByDefault(t *testing.T) {
	hub := NewHub(HubConfig{})
	clients := registerN(t, hub, 2)
	clients[0].SetRoom("a")
	clients[1].SetRoom("b")

	require.NoError(t, hub.HandleMessage(context.Background(), clients[0], []byte(`{"type":"new_comment","postId":1,"comment":{}}`)))
	assert.Len(t, drain(clients[1]), 1)
}

func TestHub_RoomScopedFanout(t *testing.T) {
	hub := NewHub(HubConfig{RoomScoped: true})
	clients := registerN(t, hub, 3)
	clients[0].SetRoom("a")
	clients[1].SetRoom("a")
	clients[2].SetRoom("b")

	require.NoError(t, hub.HandleMessage(context.Background(), clients[0], []byte(`{"type":"new_comment","postId":1,"comment":{}}`)))
	assert.Len(t, drain(clients[1]), 1)
	assert.Empty(t, drain(clients[2]))
}

func TestHub_DropsBadFrames(t *testing.T) {
	hub := NewHub(HubConfig{})
	clients := registerN(t, hub, 2)
	ctx := context.Background()

	assert.ErrorIs(t, hub.HandleMessage(ctx, clients[0], []byte(`not json`)), ErrMalformedFrame)
	assert.ErrorIs(t, hub.HandleMessage(ctx, clients[0], []byte(`{"room":"x"}`)), ErrMalformedFrame)
	assert.ErrorIs(t, hub.HandleMessage(ctx, clients[0], []byte(`{"type":"dance"}`)), ErrUnknownEvent)

	assert.Empty(t, drain(clients[0]))
	assert.Empty(t, drain(clients[1]))
	assert.Equal(t, 2, hub.Len())
}

func TestHub_FullBufferDropsOnlyForThatPeer(t *testing.T) {
	hub := NewHub(HubConfig{})
	clients := registerN(t, hub, 3)
	slow := clients[1]
	for i := 0; i < SendBufferSize; i++ {
		require.True(t, slow.TrySend([]byte(`{}`)))
	}

	delivered := hub.Broadcast(clients[0], []byte(`{"type":"comment_added"}`))
	assert.Equal(t, 1, delivered)
	assert.Len(t, drain(clients[2]), 1)
	assert.Len(t, slow.Send, SendBufferSize)
}

func TestHub_RegisterLimitAndShutdown(t *testing.T) {
	hub := NewHub(HubConfig{MaxConnections: 2})
	clients := registerN(t, hub, 2)

	_, err := hub.Register(nil)
	assert.ErrorIs(t, err, ErrConnectionLimit)

	hub.UnregisterClient(clients[0])
	hub.UnregisterClient(clients[0])
	assert.False(t, clients[0].TrySend([]byte(`{}`)), "send after unregister is dropped")

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Len())
	_, ok := <-clients[1].Send
	assert.False(t, ok)

	_, err = hub.Register(nil)
	assert.Error(t, err)
}
