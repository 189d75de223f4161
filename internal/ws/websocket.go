package websocket

import (
	"log"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The server only binds to loopback; the GUI and local tools may
		// connect from any origin.
		return true
	},
}

// LogMessage is the JSON frame pushed to every connected client.
type LogMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// Manager fans build output out to all connected websocket clients.
type Manager struct {
	clients   map[*websocket.Conn]bool
	broadcast chan LogMessage
	mutex     sync.RWMutex
	writeMu   sync.Map // per-connection write mutex
}

var (
	instance *Manager
	once     sync.Once
)

// GetInstance returns the singleton Manager, starting its broadcast loop on
// first use.
func GetInstance() *Manager {
	once.Do(func() {
		instance = &Manager{
			clients:   make(map[*websocket.Conn]bool),
			broadcast: make(chan LogMessage, 100),
		}
		go instance.loop()
	})
	return instance
}

func (m *Manager) loop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message := <-m.broadcast:
			m.mutex.RLock()
			for client := range m.clients {
				mutex, _ := m.writeMu.LoadOrStore(client, &sync.Mutex{})
				writeMu := mutex.(*sync.Mutex)

				go func(c *websocket.Conn, msg LogMessage) {
					writeMu.Lock()
					defer writeMu.Unlock()

					if err := c.WriteJSON(msg); err != nil {
						log.Printf("Error writing to client: %v", err)
						m.RemoveClient(c)
					}
				}(client, message)
			}
			m.mutex.RUnlock()

		case <-ticker.C:
			m.mutex.RLock()
			for client := range m.clients {
				mutex, _ := m.writeMu.LoadOrStore(client, &sync.Mutex{})
				writeMu := mutex.(*sync.Mutex)

				go func(c *websocket.Conn) {
					writeMu.Lock()
					defer writeMu.Unlock()

					if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
						m.RemoveClient(c)
					}
				}(client)
			}
			m.mutex.RUnlock()
		}
	}
}

// AddClient registers a connection and greets it.
func (m *Manager) AddClient(conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.clients[conn] = true
	m.writeMu.Store(conn, &sync.Mutex{})

	msg := LogMessage{
		Type:    "info",
		Message: "Connected to build log stream",
		Time:    time.Now().Format("2006/01/02 15:04:05"),
	}
	if mutex, ok := m.writeMu.Load(conn); ok {
		writeMu := mutex.(*sync.Mutex)
		writeMu.Lock()
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("Error sending initial message: %v", err)
		}
		writeMu.Unlock()
	}
}

// RemoveClient closes and forgets a connection.
func (m *Manager) RemoveClient(conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[conn]; ok {
		conn.Close()
		delete(m.clients, conn)
		m.writeMu.Delete(conn)
	}
}

// cleanMessage strips ANSI escapes and control characters from log lines
// before they go over the wire.
func cleanMessage(message string) string {
	cleaned := ansiRegex.ReplaceAllString(message, "")
	cleaned = strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, cleaned)
	return strings.TrimSpace(cleaned)
}

// BroadcastMessage queues a log line for delivery to every client.
func (m *Manager) BroadcastMessage(msgType, message string) {
	m.broadcast <- LogMessage{
		Type:    msgType,
		Message: cleanMessage(message),
		Time:    time.Now().Format("2006/01/02 15:04:05"),
	}
}
