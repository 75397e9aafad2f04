package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Actions understood by the feed.
const (
	ActionEvent       = "event"
	ActionError       = "error"
	ActionSubscribe   = "subscribe_post"
	ActionUnsubscribe = "unsubscribe_post"
	ActionSubscribed  = "subscribed"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

func encode(msg Message) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("action", msg.Action).Msg("Failed to encode websocket message")
		return nil
	}
	return b
}

// NewErrorMessage creates an encoded error message.
func NewErrorMessage(text string) []byte {
	return encode(Message{Action: ActionError, Payload: map[string]string{"message": text}})
}

// NewSubscribedMessage acknowledges a subscription change.
func NewSubscribedMessage(postID string, subscribed bool) []byte {
	return encode(Message{Action: ActionSubscribed, Payload: map[string]interface{}{"postId": postID, "subscribed": subscribed}})
}
