package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
)

const (
	// Максимальное время ожидания для pong от клиента
	pongWait = 60 * time.Second

	// Отправлять ping-сообщения клиенту с этим интервалом
	pingPeriod = (pongWait * 9) / 10

	// Время на запись одного сообщения
	writeWait = 10 * time.Second

	// Максимальный размер сообщения от клиента
	maxMessageSize = 64 * 1024

	// Размер буфера для отправляемых сообщений
	writeBufferSize = 256

	// Время на обработку одного события
	eventTimeout = 10 * time.Second
)

// Client представляет собой отдельное WebSocket соединение
type Client struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	conn      *websocket.Conn
	send      chan []byte // Буферизованный канал исходящих сообщений
	manager   *Manager
	chat      ChatService
	closeChan chan struct{}
}

// NewClient создает новый экземпляр Client
func NewClient(userID uuid.UUID, conn *websocket.Conn, manager *Manager, chat ChatService) *Client {
	return &Client{
		ID:        uuid.New(),
		UserID:    userID,
		conn:      conn,
		send:      make(chan []byte, writeBufferSize),
		manager:   manager,
		chat:      chat,
		closeChan: make(chan struct{}),
	}
}

// Start запускает клиентские горутины для чтения и записи
func (c *Client) Start() {
	// Добавляем клиент к менеджеру
	c.manager.AddClient(c)

	// Запускаем горутины для чтения и записи
	go c.readPump()
	go c.writePump()
}

// enqueue ставит данные в очередь отправки; false, если клиент не успевает их забирать
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	case <-c.closeChan:
		return true
	default:
		return false
	}
}

// readPump обрабатывает входящие сообщения от клиента
func (c *Client) readPump() {
	defer func() {
		c.manager.RemoveClient(c)
		c.conn.Close()
		close(c.closeChan)
	}()

	// Настраиваем соединение
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Бесконечный цикл чтения сообщений
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Неожиданное закрытие WebSocket: %v", err)
			}
			break
		}

		// Обрабатываем входящее сообщение
		c.handleIncomingMessage(message)
	}
}

// writePump отправляет сообщения клиенту
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			// Отправляем сообщение
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Ошибка записи в WebSocket: %v", err)
				return
			}
		case <-ticker.C:
			// Отправляем ping для поддержания соединения
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closeChan:
			// Соединение закрыто
			return
		}
	}
}

// handleIncomingMessage обрабатывает входящие сообщения от клиента
func (c *Client) handleIncomingMessage(message []byte) {
	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		c.sendError("", "Неверный формат события")
		return
	}

	roomID, err := uuid.Parse(event.RoomID)
	if err != nil {
		c.sendError(event.RoomID, "Неверный формат ID комнаты")
		return
	}

	ctx, cancel := context.WithTimeout(c.manager.ctx, eventTimeout)
	defer cancel()

	switch event.Type {
	case EventJoinRoom:
		if _, err := c.chat.Authorize(ctx, c.UserID, roomID); err != nil {
			c.sendError(event.RoomID, clientMessage(err))
			return
		}
		c.manager.Join(roomID, c)
		c.sendEvent(Event{Type: EventJoinedRoom, RoomID: event.RoomID})
	case EventSendMessage:
		// Рассылку подписчикам выполняет сервис чата после сохранения
		if _, err := c.chat.CreateMessage(ctx, c.UserID, roomID, event.Body); err != nil {
			c.sendError(event.RoomID, clientMessage(err))
		}
	default:
		c.sendError(event.RoomID, "Неизвестный тип события")
	}
}

func (c *Client) sendEvent(event Event) {
	data, err := encode(event)
	if err != nil {
		log.Printf("Ошибка сериализации события: %v", err)
		return
	}
	if !c.enqueue(data) {
		log.Printf("Канал отправки клиента %s переполнен, событие %s отброшено", c.ID, event.Type)
	}
}

func (c *Client) sendError(roomID, reason string) {
	c.sendEvent(Event{Type: EventError, RoomID: roomID, Error: reason})
}

// clientMessage скрывает подробности внутренних ошибок
func clientMessage(err error) string {
	if apperr.KindOf(err) == apperr.KindInternal {
		log.Printf("❌ Ошибка обработки события WebSocket: %v", err)
		return "Внутренняя ошибка сервера"
	}
	return apperr.MessageOf(err)
}
