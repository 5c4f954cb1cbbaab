// Package realtime implements the change-feed port over a websocket push
// channel. One subscription maps to one owner-scoped topic; row-level
// INSERT/UPDATE/DELETE notifications are decoded and delivered in the order
// the service sends them.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/backend"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/models"
	"github.com/dmitrijs2005/bookmarkvault/internal/logging"
	"github.com/gorilla/websocket"
)

const (
	dialTimeout  = 12 * time.Second
	eventBuffer  = 32
	closeTimeout = time.Second
)

// Feed dials the service's realtime endpoint and hands out subscriptions.
// It implements backend.Feed.
type Feed struct {
	wsURL  string
	apiKey string
	token  func() string
	log    logging.Logger
}

// New constructs a Feed for the service at baseURL. token supplies the
// current access token at attach time.
func New(baseURL, apiKey string, token func() string, log logging.Logger) *Feed {
	wsURL := strings.TrimRight(baseURL, "/")
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	return &Feed{wsURL: wsURL, apiKey: apiKey, token: token, log: log}
}

// joinMessage asks the service to scope this socket to one owner's bookmark
// changes.
type joinMessage struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
	Token  string `json:"token"`
}

// wireEvent is the JSON shape of one row-level notification.
type wireEvent struct {
	Type   string          `json:"type"`
	Record json.RawMessage `json:"record"`
	Old    struct {
		ID string `json:"id"`
	} `json:"old"`
}

// Subscribe attaches to the owner's topic: dial, send the join frame, then
// stream events until Close or a transport failure. The returned
// subscription's channel is closed on every exit path of the read loop.
func (f *Feed) Subscribe(ctx context.Context, ownerID string) (backend.Subscription, error) {
	q := url.Values{}
	q.Set("apikey", f.apiKey)

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, f.wsURL+"/realtime/v1/websocket?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("feed dial: %w", err)
	}

	join := joinMessage{
		Action: "subscribe",
		Topic:  "bookmarks:" + ownerID,
		Token:  f.token(),
	}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("feed join: %w", err)
	}

	sub := &Subscription{
		conn:   conn,
		events: make(chan backend.Event, eventBuffer),
		log:    f.log.With("owner_id", ownerID),
	}
	go sub.readLoop()
	return sub, nil
}

// Subscription is one live websocket attachment.
type Subscription struct {
	conn   *websocket.Conn
	events chan backend.Event
	log    logging.Logger

	closeOnce sync.Once
}

func (s *Subscription) Events() <-chan backend.Event { return s.events }

// readLoop decodes inbound frames into events until the connection dies.
// Unknown frames are skipped so protocol chatter (acks, heartbeats) does not
// tear the subscription down.
func (s *Subscription) readLoop() {
	defer close(s.events)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug(context.Background(), "feed read ended", "error", err)
			}
			return
		}

		var we wireEvent
		if err := json.Unmarshal(data, &we); err != nil {
			s.log.Warn(context.Background(), "undecodable feed frame skipped", "error", err)
			continue
		}

		ev, ok := decode(we)
		if !ok {
			continue
		}
		s.events <- ev
	}
}

func decode(we wireEvent) (backend.Event, bool) {
	switch backend.EventKind(we.Type) {
	case backend.EventInsert, backend.EventUpdate:
		var rec models.Bookmark
		if err := json.Unmarshal(we.Record, &rec); err != nil {
			return backend.Event{}, false
		}
		return backend.Event{Kind: backend.EventKind(we.Type), Record: &rec}, true
	case backend.EventDelete:
		if we.Old.ID == "" {
			return backend.Event{}, false
		}
		return backend.Event{Kind: backend.EventDelete, OldID: we.Old.ID}, true
	default:
		return backend.Event{}, false
	}
}

// Close releases the subscription: a close frame is sent as a courtesy and
// the connection is torn down, which ends the read loop and closes Events.
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
		err = s.conn.Close()
	})
	return err
}

var _ backend.Feed = (*Feed)(nil)
