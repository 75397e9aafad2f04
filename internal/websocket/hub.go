package websocket

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/inkwell-be/internal/models"
)

// GlobalTopic receives every published event.
const GlobalTopic = "global"

const publishBuffer = 256

type subscription struct {
	client *Client
	postID string
	add    bool
}

type envelope struct {
	postID  string
	public  bool
	client  *Client
	message []byte
}

// Hub maintains the set of active clients and fans activity events out to them.
// All maps are owned by the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	subscribe chan subscription
	publish   chan envelope
	direct    chan envelope
	done      chan struct{}
	stopOnce  sync.Once

	// A map of post IDs to the set of clients following that post.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan subscription),
		publish:       make(chan envelope, publishBuffer),
		direct:        make(chan envelope),
		done:          make(chan struct{}),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
			if client.Topic != "" && client.Topic != GlobalTopic {
				h.addSubscription(client, client.Topic)
			}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; !ok {
				continue
			}
			if sub.add {
				h.addSubscription(sub.client, sub.postID)
			} else {
				h.removeSubscription(sub.client, sub.postID)
			}
			h.send(sub.client, NewSubscribedMessage(sub.postID, sub.add))
		case env := <-h.publish:
			h.broadcast(env)
		case env := <-h.direct:
			if _, ok := h.clients[env.client]; ok {
				h.send(env.client, env.message)
			}
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// Stop terminates Run and closes every client's send channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Join registers a client with the hub.
func (h *Hub) Join(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Leave unregisters a client. Unknown clients are ignored.
func (h *Hub) Leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for delivery. It never blocks: when the queue is full the event is dropped.
func (h *Hub) Publish(evt models.Event) {
	msg := encode(Message{Action: ActionEvent, Payload: evt})
	if msg == nil {
		return
	}
	env := envelope{message: msg, public: evt.Public()}
	if evt.PostID != nil {
		env.postID = *evt.PostID
	}
	select {
	case h.publish <- env:
	default:
		log.Warn().Str("type", evt.Type).Msg("Activity feed queue full, dropping event")
	}
}

// Subscribe adds postID to the posts client follows. A client following any post
// no longer receives the global stream.
func (h *Hub) Subscribe(client *Client, postID string) {
	select {
	case h.subscribe <- subscription{client: client, postID: postID, add: true}:
	case <-h.done:
	}
}

// Unsubscribe stops following postID.
func (h *Hub) Unsubscribe(client *Client, postID string) {
	select {
	case h.subscribe <- subscription{client: client, postID: postID}:
	case <-h.done:
	}
}

// Reply sends a message to a single registered client.
func (h *Hub) Reply(client *Client, message []byte) {
	select {
	case h.direct <- envelope{client: client, message: message}:
	case <-h.done:
	}
}

// broadcast delivers to global clients and to followers of the event's post.
// Non-public events only reach admin clients.
func (h *Hub) broadcast(env envelope) {
	for client := range h.clients {
		if client.following == 0 && client.canSee(env) {
			h.send(client, env.message)
		}
	}
	if env.postID == "" {
		return
	}
	for client := range h.subscriptions[env.postID] {
		if client.canSee(env) {
			h.send(client, env.message)
		}
	}
}

// send drops a client whose buffer is full.
func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	for postID, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, postID)
			}
		}
	}
}

func (h *Hub) addSubscription(client *Client, postID string) {
	if h.subscriptions[postID] == nil {
		h.subscriptions[postID] = make(map[*Client]bool)
	}
	if !h.subscriptions[postID][client] {
		h.subscriptions[postID][client] = true
		client.following++
	}
}

func (h *Hub) removeSubscription(client *Client, postID string) {
	subs, ok := h.subscriptions[postID]
	if !ok || !subs[client] {
		return
	}
	delete(subs, client)
	client.following--
	if len(subs) == 0 {
		delete(h.subscriptions, postID)
	}
}
