package http

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/isstrack/internal/adapters/nats"
	"github.com/samirrijal/isstrack/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsCommand is sent by clients to change what they receive.
type wsCommand struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // key of channelSubjects, default "feed"
}

// wsEvent wraps a relayed broker message with the subject it came from.
type wsEvent struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel"`
	Event   json.RawMessage `json:"event"`
}

type wsReply struct {
	Type     string   `json:"type"`
	Channel  string   `json:"channel,omitempty"`
	Channels []string `json:"channels,omitempty"`
	Error    string   `json:"error,omitempty"`
}

var channelSubjects = map[string]string{
	"feed":      natsadapter.SubjectFeedAll,
	"refreshed": natsadapter.SubjectFeedRefreshed,
}

func channelNames() []string {
	names := make([]string, 0, len(channelSubjects))
	for name := range channelSubjects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// wsSession is one connected client. Writes are serialized because the
// NATS callbacks, the pinger and the read loop all write.
type wsSession struct {
	conn *websocket.Conn
	nc   *nats.Conn
	log  *slog.Logger

	mu   sync.Mutex
	subs map[string]*nats.Subscription // channel -> subscription
}

func (s *wsSession) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *wsSession) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.write(websocket.TextMessage, data); err != nil {
		s.log.Debug("ws write failed", "error", err)
	}
}

func (s *wsSession) subscribe(channel string) error {
	if _, ok := s.subs[channel]; ok {
		return nil
	}
	sub, err := s.nc.Subscribe(channelSubjects[channel], func(msg *nats.Msg) {
		s.send(wsEvent{Type: "event", Channel: channel, Event: json.RawMessage(msg.Data)})
	})
	if err != nil {
		return err
	}
	s.subs[channel] = sub
	return nil
}

func (s *wsSession) unsubscribe(channel string) bool {
	sub, ok := s.subs[channel]
	if !ok {
		return false
	}
	_ = sub.Unsubscribe()
	delete(s.subs, channel)
	return true
}

func (s *wsSession) handle(cmd wsCommand) {
	channel := cmd.Channel
	if channel == "" {
		channel = "feed"
	}
	if _, ok := channelSubjects[channel]; !ok {
		s.send(wsReply{Type: "error", Error: "unknown channel: " + channel, Channels: channelNames()})
		return
	}

	switch cmd.Action {
	case "subscribe":
		if err := s.subscribe(channel); err != nil {
			s.send(wsReply{Type: "error", Channel: channel, Error: "subscribe failed: " + err.Error()})
			return
		}
		s.send(wsReply{Type: "subscribed", Channel: channel})
	case "unsubscribe":
		if !s.unsubscribe(channel) {
			s.send(wsReply{Type: "error", Channel: channel, Error: "not subscribed"})
			return
		}
		s.send(wsReply{Type: "unsubscribed", Channel: channel})
	default:
		s.send(wsReply{Type: "error", Error: "unknown action: " + cmd.Action})
	}
}

func (s *wsSession) close() {
	for channel := range s.subs {
		s.unsubscribe(channel)
	}
}

// WebSocketHandler relays feed refresh events from NATS. Clients start on the
// "feed" channel and may switch with {"action":"unsubscribe","channel":"feed"}.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		s := &wsSession{
			conn: c,
			nc:   nc,
			log:  slog.Default().With("remote", c.RemoteAddr().String()),
			subs: make(map[string]*nats.Subscription),
		}
		s.log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		if err := s.subscribe("feed"); err != nil {
			s.log.Error("ws default subscribe failed", "error", err)
			return
		}
		defer s.close()
		s.send(wsReply{Type: "welcome", Channel: "feed", Channels: channelNames()})

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := s.write(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				break
			}
			var cmd wsCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				s.send(wsReply{Type: "error", Error: "invalid JSON"})
				continue
			}
			s.handle(cmd)
		}
		s.log.Info("ws client disconnected")
	}
}
