// Package feed provides a WebSocket server broadcasting executions to
// connected clients in real time.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luxfi/log"

	"github.com/luxfi/venue/pkg/venue"
)

// Message is the wire envelope sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ExecutionUpdate is the payload broadcast for every execution.
type ExecutionUpdate struct {
	ExecutionID uint64 `json:"executionId"`
	Symbol      string `json:"symbol"`
	Quantity    int64  `json:"quantity"`
	Price       string `json:"price"`
	Buyer       string `json:"buyer"`
	Seller      string `json:"seller"`
	Timestamp   int64  `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Local simulation feed, no origin policy.
		return true
	},
}

// Server fans executions out to WebSocket clients. Slow clients are dropped
// rather than allowed to stall the matching path.
type Server struct {
	logger log.Logger

	clients    map[*Client]bool
	clientsMu  sync.Mutex
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message

	messagesOut uint64
	clientCount int32
	nextClient  uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Client is one connected feed subscriber.
type Client struct {
	id     uint64
	conn   *websocket.Conn
	server *Server
	send   chan []byte
}

// NewServer creates a feed server.
func NewServer(logger log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan Message, 1024),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start runs the hub and serves /ws and /health on addr until Stop is
// called. It blocks; run it on its own goroutine.
func (s *Server) Start(addr string) error {
	s.wg.Add(1)
	go s.runHub()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		<-s.ctx.Done()
		server.Shutdown(context.Background())
	}()

	s.logger.Info("feed server listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("feed server error: %w", err)
	}
	return nil
}

// Stop closes every client connection and stops the hub.
func (s *Server) Stop() {
	s.logger.Info("stopping feed server")
	s.cancel()
	s.wg.Wait()
}

// BroadcastExecution queues an execution for delivery to all clients. It is a
// venue.ExecutionListener and never blocks the matching worker: if the
// broadcast queue is full the update is dropped.
func (s *Server) BroadcastExecution(e *venue.Execution) {
	msg := Message{
		Type: "execution",
		Data: ExecutionUpdate{
			ExecutionID: e.ID,
			Symbol:      e.Symbol,
			Quantity:    e.Quantity,
			Price:       e.Price.String(),
			Buyer:       e.BuyOrder.Trader.ID(),
			Seller:      e.SellOrder.Trader.ID(),
			Timestamp:   e.Timestamp.UnixMilli(),
		},
		Timestamp: time.Now().Unix(),
	}
	select {
	case s.broadcast <- msg:
	default:
	}
}

func (s *Server) runHub() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.clientsMu.Lock()
			for client := range s.clients {
				close(client.send)
			}
			s.clients = make(map[*Client]bool)
			s.clientsMu.Unlock()
			return

		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = true
			s.clientsMu.Unlock()
			total := atomic.AddInt32(&s.clientCount, 1)
			s.logger.Debug("feed client connected", "id", client.id, "total", total)

		case client := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				atomic.AddInt32(&s.clientCount, -1)
			}
			s.clientsMu.Unlock()

		case msg := <-s.broadcast:
			s.broadcastMessage(msg)
		}
	}
}

func (s *Server) broadcastMessage(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal feed message", "error", err)
		return
	}
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for client := range s.clients {
		select {
		case client.send <- payload:
			atomic.AddUint64(&s.messagesOut, 1)
		default:
			// Slow consumer: drop the connection, not the matcher.
			delete(s.clients, client)
			close(client.send)
			atomic.AddInt32(&s.clientCount, -1)
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{
		id:     atomic.AddUint64(&s.nextClient, 1),
		conn:   conn,
		server: s,
		send:   make(chan []byte, 256),
	}
	s.register <- client
	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "healthy",
		"clients":  atomic.LoadInt32(&s.clientCount),
		"messages": atomic.LoadUint64(&s.messagesOut),
	})
}

// readPump discards client input and tears the connection down on error. The
// feed is one-way; reads exist to notice disconnects and answer pings.
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
