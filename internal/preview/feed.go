package preview

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/domsync/pkg/morph"
)

const (
	// SubscriberQueue is how many undelivered messages a subscriber may
	// have before it is dropped.
	SubscriberQueue = 64

	writeWait = 10 * time.Second
)

// MessageType tells pass results from sync failures.
type MessageType string

const (
	MessagePass  MessageType = "pass"
	MessageError MessageType = "error"
)

// Message is sent to feed subscribers after every sync. Seq starts at 1 and
// grows by one per message, in pass order.
type Message struct {
	Seq   uint64          `json:"seq"`
	Type  MessageType     `json:"type"`
	Stats *morph.Stats    `json:"stats,omitempty"`
	HTML  string          `json:"html,omitempty"`
	Error json.RawMessage `json:"error,omitempty"`
}

// subscriber owns one connection. Its writer goroutine is the only code that
// writes to conn; the handler goroutine only reads.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func (sub *subscriber) writeLoop() {
	defer sub.conn.Close()
	for data := range sub.send {
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			// The reader sees the closed connection and unsubscribes.
			return
		}
	}
	sub.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// Feed fans pass results out to websocket subscribers. Messages are numbered
// and queued under one lock, so every subscriber sees them in the order
// NotifyPass and NotifyError were called.
type Feed struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	seq    uint64
	closed bool
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The preview is a local tool.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWebSocket upgrades the request and keeps the subscriber until it
// disconnects.
func (f *Feed) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := f.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, SubscriberQueue)}
	if !f.subscribe(sub) {
		conn.Close()
		return
	}
	go sub.writeLoop()

	// Subscribers never send anything; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	f.unsubscribe(sub)
}

func (f *Feed) subscribe(sub *subscriber) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.subs[sub] = struct{}{}
	return true
}

func (f *Feed) unsubscribe(sub *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropLocked(sub)
}

// dropLocked removes sub and ends its writer. f.mu must be held.
func (f *Feed) dropLocked(sub *subscriber) {
	if _, ok := f.subs[sub]; ok {
		delete(f.subs, sub)
		close(sub.send)
	}
}

// NotifyPass broadcasts a completed pass and the resulting document.
func (f *Feed) NotifyPass(stats morph.Stats, html string) {
	f.broadcast(Message{Type: MessagePass, Stats: &stats, HTML: html})
}

// NotifyError broadcasts a failed sync. body is a FormatJSON error object.
func (f *Feed) NotifyError(body string) {
	f.broadcast(Message{Type: MessageError, Error: json.RawMessage(body)})
}

// broadcast numbers msg and queues it for every subscriber. It never blocks
// on the network; a subscriber whose queue is full is dropped.
func (f *Feed) broadcast(msg Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	msg.Seq = f.seq
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	for sub := range f.subs {
		select {
		case sub.send <- data:
		default:
			f.dropLocked(sub)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (f *Feed) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close disconnects every subscriber and refuses new ones.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for sub := range f.subs {
		f.dropLocked(sub)
	}
}

// ClientScript reloads the preview page whenever a pass lands. It is appended
// to the GET / response only, never to the stored document.
const ClientScript = `
<script>
(function() {
    'use strict';

    var delay = 1000;
    var lastSeq = 0;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '/_domsync/ws');

        ws.onopen = function() {
            delay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }
            if (msg.seq <= lastSeq) {
                return;
            }
            lastSeq = msg.seq;
            if (msg.type === 'pass') {
                location.reload();
            } else if (msg.type === 'error') {
                console.error('[domsync] sync failed:', msg.error);
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                delay = Math.min(delay * 2, 30000);
                connect();
            }, delay);
        };
    }

    connect();
})();
</script>
`
