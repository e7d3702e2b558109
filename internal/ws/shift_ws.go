package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Hub agrupa as conexões de clientes por escala (shiftID). Painéis de
// ocupação assinam a escala e recebem os eventos de inscrição, promoção e
// desistência em tempo real.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan BroadcastMessage
	mu         sync.RWMutex
}

// BroadcastMessage é a mensagem destinada aos assinantes de uma escala.
type BroadcastMessage struct {
	ShiftID string
	Message []byte
}

// WSMessage é o envelope JSON enviado aos clientes.
type WSMessage struct {
	EventType string                 `json:"event_type"`
	ShiftID   string                 `json:"shift_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

var HubInstance = NewHub()

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage, 64),
	}
}

// Run processa os canais do hub. Deve rodar em uma goroutine própria.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.ShiftID] == nil {
				h.clients[client.ShiftID] = make(map[*Client]bool)
			}
			h.clients[client.ShiftID][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ShiftID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.ShiftID)
					}
				}
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[message.ShiftID]; ok {
				for client := range clients {
					select {
					case client.Send <- message.Message:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastWSMessage serializa e envia o evento para os assinantes da escala.
// O envio nunca bloqueia o chamador: com o buffer cheio (ou o hub parado) a
// mensagem é descartada, e a inscrição em si já foi persistida.
func (h *Hub) BroadcastWSMessage(msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Println("Erro ao serializar mensagem WS:", err)
		return
	}
	select {
	case h.broadcast <- BroadcastMessage{ShiftID: msg.ShiftID, Message: payload}:
	default:
		log.Println("Buffer do hub WS cheio, evento descartado:", msg.EventType)
	}
}

// Client representa uma conexão WebSocket assinando uma escala.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	ShiftID string
}

// readPump só acompanha o encerramento da conexão; o cliente não envia nada.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ShiftWebSocketHandler faz o upgrade da conexão e registra o cliente no hub.
// URL: /api/shifts/{id}/ws
func ShiftWebSocketHandler(c *gin.Context) {
	shiftID := c.Param("id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		http.Error(c.Writer, "Erro no upgrade para WebSocket", http.StatusInternalServerError)
		return
	}
	client := &Client{
		Hub:     HubInstance,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		ShiftID: shiftID,
	}
	HubInstance.register <- client

	go client.writePump()
	client.readPump()
}
