// Package solana provides a websocket notifier that reports new
// transactions mentioning a wallet, used to trigger tail syncs.
package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Notifier defaults.
const (
	DefaultReconnectDelay    = 1 * time.Second
	DefaultMaxReconnectDelay = 30 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultReadTimeout       = 60 * time.Second
	DefaultWriteTimeout      = 10 * time.Second

	subscribeTimeout = 30 * time.Second
	mentionBuffer    = 1024
)

// Mention is one confirmed transaction that mentioned the watched wallet.
type Mention struct {
	Signature string
	Slot      int64
	Failed    bool // transaction landed with an error
}

// NotifierConfig configures reconnect and keepalive behavior.
type NotifierConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	Logger            *log.Logger
}

func (c *NotifierConfig) withDefaults() {
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.MaxReconnectDelay <= 0 {
		c.MaxReconnectDelay = DefaultMaxReconnectDelay
	}
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Notifier maintains one logsSubscribe subscription for one wallet and
// delivers mentions until closed. It reconnects and resubscribes on
// connection loss.
type Notifier struct {
	endpoint string
	wallet   string
	config   NotifierConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	subID     atomic.Int64
	requestID atomic.Uint64
	closed    atomic.Bool

	mentions chan Mention
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewNotifier connects and subscribes to mentions of the wallet.
func NewNotifier(ctx context.Context, endpoint, wallet string, config *NotifierConfig) (*Notifier, error) {
	cfg := NotifierConfig{}
	if config != nil {
		cfg = *config
	}
	cfg.withDefaults()

	n := &Notifier{
		endpoint: endpoint,
		wallet:   wallet,
		config:   cfg,
		logger:   cfg.Logger,
		mentions: make(chan Mention, mentionBuffer),
		done:     make(chan struct{}),
	}

	if err := n.connect(ctx); err != nil {
		return nil, err
	}
	if err := n.subscribe(ctx); err != nil {
		n.closeConn()
		return nil, err
	}

	n.wg.Add(2)
	go n.readLoop()
	go n.pingLoop()

	return n, nil
}

// Mentions returns the delivery channel. It is closed by Close.
func (n *Notifier) Mentions() <-chan Mention {
	return n.mentions
}

// Close tears down the subscription and connection.
func (n *Notifier) Close() error {
	if n.closed.Swap(true) {
		return nil
	}
	close(n.done)

	n.connMu.Lock()
	if n.conn != nil {
		n.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		n.conn.Close()
	}
	n.connMu.Unlock()

	n.wg.Wait()
	close(n.mentions)
	return nil
}

func (n *Notifier) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, n.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	n.connMu.Lock()
	n.conn = conn
	n.connMu.Unlock()
	return nil
}

func (n *Notifier) closeConn() {
	n.connMu.Lock()
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	n.connMu.Unlock()
}

// subscribe sends logsSubscribe for the wallet and waits for the
// subscription id.
func (n *Notifier) subscribe(ctx context.Context) error {
	reqID := n.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string]interface{}{"mentions": []string{n.wallet}},
			map[string]string{"commitment": "confirmed"},
		},
	}

	n.connMu.Lock()
	conn := n.conn
	if conn == nil {
		n.connMu.Unlock()
		return fmt.Errorf("not connected")
	}
	conn.SetWriteDeadline(time.Now().Add(n.config.WriteTimeout))
	err := conn.WriteJSON(req)
	n.connMu.Unlock()
	if err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	deadline := time.Now().Add(subscribeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	for {
		conn.SetReadDeadline(deadline)
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read subscribe response: %w", err)
		}

		var resp wsSubscribeResponse
		if err := json.Unmarshal(message, &resp); err == nil && resp.ID == reqID {
			if resp.Error != nil {
				return fmt.Errorf("logsSubscribe error %d: %s", resp.Error.Code, resp.Error.Message)
			}
			n.subID.Store(resp.Result)
			return nil
		}
		// Anything else arriving before the confirmation is dispatched
		// so early mentions are not lost.
		n.handleMessage(message)
	}
}

// readLoop reads notifications and drives reconnection.
func (n *Notifier) readLoop() {
	defer n.wg.Done()

	delay := n.config.ReconnectDelay

	for !n.closed.Load() {
		n.connMu.Lock()
		conn := n.conn
		n.connMu.Unlock()

		if conn == nil {
			if !n.reconnect(delay) {
				return
			}
			delay *= 2
			if delay > n.config.MaxReconnectDelay {
				delay = n.config.MaxReconnectDelay
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(n.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if n.closed.Load() {
				return
			}
			n.logger.Printf("wallet=%s notifier read: %v", n.wallet, err)
			n.closeConn()
			continue
		}

		delay = n.config.ReconnectDelay
		n.handleMessage(message)
	}
}

// reconnect waits, redials, and resubscribes. Returns false on shutdown.
func (n *Notifier) reconnect(delay time.Duration) bool {
	select {
	case <-n.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
	defer cancel()

	if err := n.connect(ctx); err != nil {
		n.logger.Printf("wallet=%s notifier reconnect: %v", n.wallet, err)
		return true
	}
	if err := n.subscribe(ctx); err != nil {
		n.logger.Printf("wallet=%s notifier resubscribe: %v", n.wallet, err)
		n.closeConn()
		return true
	}
	n.logger.Printf("wallet=%s notifier reconnected", n.wallet)
	return true
}

func (n *Notifier) handleMessage(message []byte) {
	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err != nil || notif.Method != "logsNotification" {
		return
	}
	if notif.Params == nil || notif.Params.Subscription != n.subID.Load() {
		return
	}

	value := notif.Params.Result.Value
	m := Mention{
		Signature: value.Signature,
		Failed:    value.Err != nil,
	}
	if notif.Params.Result.Context != nil {
		m.Slot = notif.Params.Result.Context.Slot
	}

	select {
	case n.mentions <- m:
	case <-n.done:
	}
}

// pingLoop keeps the connection alive.
func (n *Notifier) pingLoop() {
	defer n.wg.Done()

	ticker := time.NewTicker(n.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.done:
			return
		case <-ticker.C:
			n.connMu.Lock()
			if n.conn != nil {
				n.conn.SetWriteDeadline(time.Now().Add(n.config.WriteTimeout))
				n.conn.WriteMessage(websocket.PingMessage, nil)
			}
			n.connMu.Unlock()
		}
	}
}

// Websocket wire types.

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}
