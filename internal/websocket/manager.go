package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

// Manager представляет центральный менеджер для всех WebSocket соединений
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	rooms        map[uuid.UUID]map[uuid.UUID]*Client // roomID -> clientID -> client
	roomsMutex   sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewManager создает новый экземпляр Manager
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clients: make(map[uuid.UUID]*Client),
		rooms:   make(map[uuid.UUID]map[uuid.UUID]*Client),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddClient регистрирует нового клиента
func (m *Manager) AddClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	log.Printf("WebSocket клиент %s подключен для пользователя %s", client.ID, client.UserID)
}

// RemoveClient удаляет клиента из менеджера и из всех комнат
func (m *Manager) RemoveClient(client *Client) {
	m.clientsMutex.Lock()
	_, exists := m.clients[client.ID]
	delete(m.clients, client.ID)
	m.clientsMutex.Unlock()

	// Чистим комнаты в любом случае: клиент мог подписаться уже после отключения
	m.roomsMutex.Lock()
	for roomID, members := range m.rooms {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	m.roomsMutex.Unlock()

	if exists {
		log.Printf("WebSocket клиент %s отключен для пользователя %s", client.ID, client.UserID)
	}
}

// Join подписывает клиента на комнату; повторная подписка ничего не меняет
func (m *Manager) Join(roomID uuid.UUID, client *Client) {
	m.roomsMutex.Lock()
	defer m.roomsMutex.Unlock()

	if _, ok := m.rooms[roomID]; !ok {
		m.rooms[roomID] = make(map[uuid.UUID]*Client)
	}
	m.rooms[roomID][client.ID] = client
}

// Leave отписывает клиента от комнаты
func (m *Manager) Leave(roomID uuid.UUID, client *Client) {
	m.roomsMutex.Lock()
	defer m.roomsMutex.Unlock()

	if members, ok := m.rooms[roomID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
}

// Subscribers возвращает число подписчиков комнаты
func (m *Manager) Subscribers(roomID uuid.UUID) int {
	m.roomsMutex.RLock()
	defer m.roomsMutex.RUnlock()
	return len(m.rooms[roomID])
}

// BroadcastMessage рассылает новое сообщение всем подписчикам его комнаты
func (m *Manager) BroadcastMessage(msg models.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Ошибка сериализации сообщения: %v", err)
		return
	}
	data, err := encode(Event{Type: EventNewMessage, RoomID: msg.RoomID.String(), Payload: payload})
	if err != nil {
		log.Printf("Ошибка сериализации события: %v", err)
		return
	}
	m.sendToRoom(msg.RoomID, data)
}

func (m *Manager) sendToRoom(roomID uuid.UUID, data []byte) {
	m.roomsMutex.RLock()
	members := make([]*Client, 0, len(m.rooms[roomID]))
	for _, client := range m.rooms[roomID] {
		members = append(members, client)
	}
	m.roomsMutex.RUnlock()

	for _, client := range members {
		if !client.enqueue(data) {
			// Канал заполнен, клиент слишком медленный - закрываем соединение
			log.Printf("Канал отправки клиента %s переполнен, соединение закрыто", client.ID)
			client.conn.Close()
			m.RemoveClient(client)
		}
	}
}

// Shutdown корректно завершает работу менеджера WebSocket
func (m *Manager) Shutdown() {
	m.cancel()

	m.clientsMutex.Lock()
	for _, client := range m.clients {
		client.conn.Close()
	}
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	m.roomsMutex.Lock()
	m.rooms = make(map[uuid.UUID]map[uuid.UUID]*Client)
	m.roomsMutex.Unlock()
}
