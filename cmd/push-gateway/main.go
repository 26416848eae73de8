// The push-gateway binary holds buyer WebSocket connections and pushes
// order notifications to whoever is online. Which gateway node a buyer
// is connected to is tracked in Redis, so a fleet of gateways can run
// behind one load balancer.
package main

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"shopbank/internal/pkg/bootstrap"
	"shopbank/internal/pkg/constants"
	"shopbank/internal/pkg/logger"
	"shopbank/internal/pkg/mq"
	"shopbank/internal/pkg/redis"
	"shopbank/internal/pkg/session"
)

const (
	servicePort = 8088

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub tracks the buyers connected to this node.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	lock       sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
			}
			h.clients[client.userID] = client
			h.lock.Unlock()
			log.Info().Str("user_id", client.userID).Msg("client connected")
		case client := <-h.unregister:
			h.lock.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.lock.Unlock()
			log.Info().Str("user_id", client.userID).Msg("client disconnected")
		}
	}
}

// send delivers payload to userID if they are connected here. A full
// send buffer counts as offline.
func (h *Hub) send(userID string, payload []byte) bool {
	h.lock.RLock()
	client, ok := h.clients[userID]
	h.lock.RUnlock()
	if !ok {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(sessions *session.Manager) {
	defer func() {
		c.hub.unregister <- c
		_ = sessions.ClearUserGateway(context.Background(), c.userID)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// Clients only send heartbeats; any read error ends the session.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, sessions *session.Manager, nodeID string, w http.ResponseWriter, r *http.Request) {
	userID := resolveUser(sessions, r)
	if userID == "" {
		http.Error(w, "session token or userId is required", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: userID}
	hub.register <- client

	if err := sessions.SetUserGateway(r.Context(), userID, nodeID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("recording gateway node")
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(sessions)
}

func resolveUser(sessions *session.Manager, r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		if userID, err := sessions.Resolve(r.Context(), token); err == nil {
			return userID
		}
		return ""
	}
	return r.URL.Query().Get("userId")
}

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	nodeID := constants.PushGateway + "-" + uuid.NewString()[:8]

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	sessions := session.NewManager(redisClient, cfg.App.SessionTTL)

	hub := newHub()
	go hub.run()

	// Every node consumes the whole order-events topic with its own
	// group id and drops events for buyers connected elsewhere.
	reader := mq.NewReader(cfg.Infra.Kafka.Brokers, nodeID, constants.OrderEventsTopic)

	consumeCtx, stopConsumer := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(consumeCtx)
	group.Go(func() error {
		return feedHub(groupCtx, reader, hub)
	})

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.PushGateway,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				serveWs(hub, sessions, nodeID, w, r)
			})
		},
		OnShutdown: func(ctx context.Context) {
			stopConsumer()
			if err := reader.Close(); err != nil {
				log.Error().Err(err).Msg("closing kafka reader")
			}
			_ = group.Wait()
			if err := redisClient.Close(); err != nil {
				log.Error().Err(err).Msg("closing redis client")
			}
		},
	})
}

// feedHub forwards order events to connected buyers. The raw event
// JSON goes straight down the socket.
func feedHub(ctx context.Context, reader *kafka.Reader, hub *Hub) error {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Ctx(ctx).Error().Err(err).Msg("reading order event, retrying")
			time.Sleep(time.Second)
			continue
		}
		userID := string(msg.Key)
		if _, err := strconv.ParseInt(userID, 10, 64); err != nil {
			continue
		}
		if hub.send(userID, msg.Value) {
			logger.Ctx(ctx).Debug().Str("user_id", userID).Msg("event pushed")
		}
	}
}
