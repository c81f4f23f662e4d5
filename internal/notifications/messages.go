package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"communityhub/internal/middleware"
	"communityhub/internal/observability"
)

// Inbound and outbound event types.
const (
	EventJoinRoom      = "join_room"
	EventJoinedRoom    = "joined_room"
	EventNewComment    = "new_comment"
	EventCommentAdded  = "comment_added"
	EventNewReaction   = "new_reaction"
	EventReactionAdded = "reaction_added"
)

var (
	// ErrMalformedFrame is returned for frames that are not a JSON object with a type.
	ErrMalformedFrame = errors.New("malformed websocket frame")
	// ErrUnknownEvent is returned for frames with an unrecognised type.
	ErrUnknownEvent = errors.New("unknown websocket event")
)

// Frame is the envelope shared by inbound and outbound messages. Payload
// fields are kept as raw JSON and passed on untouched.
type Frame struct {
	Type     string          `json:"type"`
	Room     json.RawMessage `json:"room,omitempty"`
	PostID   json.RawMessage `json:"postId,omitempty"`
	Comment  json.RawMessage `json:"comment,omitempty"`
	Reaction json.RawMessage `json:"reaction,omitempty"`
}

// HandleMessage dispatches one inbound frame from c. Errors are logged here
// and returned for callers that want them; the connection is never closed.
func (h *Hub) HandleMessage(ctx context.Context, c *Client, raw []byte) (err error) {
	var in Frame
	if jerr := json.Unmarshal(raw, &in); jerr != nil || in.Type == "" {
		observability.WebSocketEventsTotal.WithLabelValues("malformed").Inc()
		middleware.Logger.Warn("dropping malformed websocket frame", "client_id", c.ID, "bytes", len(raw))
		return ErrMalformedFrame
	}

	_, span := observability.StartWebSocketSpan(ctx, h.Name(), in.Type)
	defer func() { observability.EndSpan(span, err) }()

	switch in.Type {
	case EventJoinRoom:
		observability.WebSocketEventsTotal.WithLabelValues(in.Type).Inc()
		c.SetRoom(roomLabel(in.Room))
		return h.reply(c, Frame{Type: EventJoinedRoom, Room: in.Room})

	case EventNewComment:
		observability.WebSocketEventsTotal.WithLabelValues(in.Type).Inc()
		return h.relay(c, Frame{Type: EventCommentAdded, PostID: in.PostID, Comment: in.Comment})

	case EventNewReaction:
		observability.WebSocketEventsTotal.WithLabelValues(in.Type).Inc()
		return h.relay(c, Frame{Type: EventReactionAdded, PostID: in.PostID, Reaction: in.Reaction})

	default:
		observability.WebSocketEventsTotal.WithLabelValues("unknown").Inc()
		middleware.Logger.Warn("dropping unknown websocket event", "client_id", c.ID, "type", in.Type)
		return fmt.Errorf("%w: %q", ErrUnknownEvent, in.Type)
	}
}

// roomLabel turns the raw room value into the label used for scoping.
// JSON strings are unquoted; any other value is labelled by its encoding.
func roomLabel(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (h *Hub) reply(c *Client, out Frame) error {
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	c.TrySend(data)
	return nil
}

func (h *Hub) relay(sender *Client, out Frame) error {
	data, err := json.Marshal(out)
	if err != nil {
		// raw payloads that fail to re-encode were not valid JSON to begin with
		middleware.Logger.Warn("dropping websocket relay", "client_id", sender.ID, "type", out.Type, "error", err)
		return ErrMalformedFrame
	}
	n := h.Broadcast(sender, data)
	observability.WebSocketRelaysTotal.WithLabelValues(out.Type).Add(float64(n))
	return nil
}
