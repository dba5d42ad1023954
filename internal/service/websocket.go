package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tutor_room/internal/models"
)

// Client 代表一個 WebSocket 客戶端連接
// 身分在連線建立時由房間憑證綁定，之後所有訊息都以綁定的身分為準，
// 不信任訊息內容中客戶端自報的身分欄位
type Client struct {
	Conn          *websocket.Conn // WebSocket 連接
	RoomID        string          // 房間識別碼
	UserID        uint            // 綁定的用戶 ID
	Role          models.UserRole // 綁定的角色
	Authenticated bool            // 憑證驗證是否通過；未通過仍允許連線，但操作會被拒絕，也收不到房間廣播
	SendChan      chan []byte     // 訊息發送通道，用於異步傳送訊息
}

// WebSocketManager 管理所有的 WebSocket 連接和訊息傳遞
type WebSocketManager struct {
	clients    map[string]map[*Client]bool // 兩層 map: roomID -> client -> bool
	clientsMux sync.RWMutex                // 用於保護 clients map 的讀寫鎖

	// 讀取期限，必須不短於心跳寬限期，否則閒置中的參與者會被誤判為離線
	readDeadline time.Duration

	onJoin    func(client *Client)                            // 連線註冊完成後呼叫，重播白板記錄用
	onMessage func(client *Client, msg *models.RoomMessage)   // 收到訊息時呼叫
}

// NewWebSocketManager 創建並初始化新的 WebSocket 連接管理器
func NewWebSocketManager(graceWindow time.Duration) *WebSocketManager {
	return &WebSocketManager{
		clients:      make(map[string]map[*Client]bool),
		readDeadline: graceWindow * 2,
	}
}

// SetCallbacks 設定連線與訊息的處理回呼，必須在伺服器啟動前完成
func (s *WebSocketManager) SetCallbacks(onJoin func(*Client), onMessage func(*Client, *models.RoomMessage)) {
	s.onJoin = onJoin
	s.onMessage = onMessage
}

// HandleClient 處理一個已升級的 WebSocket 連接，阻塞直到連線結束
func (s *WebSocketManager) HandleClient(client *Client) {
	client.SendChan = make(chan []byte, 256) // 設置緩衝大小為 256 的訊息通道

	s.addClient(client)

	// 確保連線關閉時清理資源，removeClient 負責關閉發送通道
	defer func() {
		s.removeClient(client)
		client.Conn.Close()
	}()

	go s.writePump(client)

	if s.onJoin != nil {
		s.onJoin(client)
	}

	s.readPump(client)
}

// readPump 持續監聽並處理從客戶端接收的訊息
func (s *WebSocketManager) readPump(client *Client) {
	client.Conn.SetReadLimit(65536) // 筆劃訊息可能帶大量座標點
	client.Conn.SetReadDeadline(time.Now().Add(s.readDeadline))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(s.readDeadline))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("component", "ws_manager").Warnf("websocket unexpected close error: %v", err)
			}
			break
		}

		// 解析接收到的訊息
		var msg models.RoomMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logrus.WithField("component", "ws_manager").Warnf("message parse error: %v", err)
			continue
		}

		// 以連線綁定的身分覆寫訊息中的身分欄位
		msg.RoomID = client.RoomID
		msg.UserID = client.UserID
		msg.Role = string(client.Role)
		msg.Timestamp = time.Now()

		if s.onMessage != nil {
			s.onMessage(client, &msg)
		}
	}
}

// writePump 處理向客戶端發送訊息的邏輯
func (s *WebSocketManager) writePump(client *Client) {
	// 傳輸層 ping 間隔，留足裕度讓 pong 趕在讀取期限前回來
	ticker := time.NewTicker(s.readDeadline * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// BroadcastToRoom 向房間內的所有客戶端廣播訊息
func (s *WebSocketManager) BroadcastToRoom(roomID string, msg *models.RoomMessage) {
	s.broadcast(roomID, msg, 0)
}

// BroadcastToRoomExcept 向房間內除了指定用戶以外的客戶端廣播訊息
// 以作者的用戶 ID 做回音消除，避免發起者重繪自己的輸入
func (s *WebSocketManager) BroadcastToRoomExcept(roomID string, exceptUserID uint, msg *models.RoomMessage) {
	s.broadcast(roomID, msg, exceptUserID)
}

func (s *WebSocketManager) broadcast(roomID string, msg *models.RoomMessage, exceptUserID uint) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logrus.WithField("component", "ws_manager").Errorf("message encoding error: %v", err)
		return
	}

	var stale []*Client

	s.clientsMux.RLock()
	for client := range s.clients[roomID] {
		// 房間內容只流向已驗證的連線；未驗證的連線只會收到點對點的錯誤回報
		if !client.Authenticated {
			continue
		}
		if exceptUserID != 0 && client.UserID == exceptUserID {
			continue
		}
		select {
		case client.SendChan <- payload:
			// 訊息成功加入發送隊列
		default:
			// 客戶端訊息隊列已滿，視為失聯，稍後移除
			stale = append(stale, client)
		}
	}
	s.clientsMux.RUnlock()

	for _, client := range stale {
		s.removeClient(client)
		client.Conn.Close()
	}
}

// SendToClient 向單一客戶端發送訊息，不阻塞呼叫者
func (s *WebSocketManager) SendToClient(client *Client, msg *models.RoomMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	// 在鎖內確認客戶端仍在註冊表中，避免向已關閉的通道發送
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()
	if !s.clients[client.RoomID][client] {
		return
	}
	select {
	case client.SendChan <- payload:
	default:
	}
}

// BroadcastSystemMessage 發送系統訊息到指定房間
func (s *WebSocketManager) BroadcastSystemMessage(roomID, content string) {
	s.BroadcastToRoom(roomID, models.NewSystemMessage(roomID, content))
}

// addClient 安全地添加新的客戶端連接
func (s *WebSocketManager) addClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if s.clients[client.RoomID] == nil {
		s.clients[client.RoomID] = make(map[*Client]bool)
	}
	s.clients[client.RoomID][client] = true
}

// removeClient 安全地移除客戶端連接並關閉其發送通道
func (s *WebSocketManager) removeClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if clients, ok := s.clients[client.RoomID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.SendChan)
			// 如果房間空了，刪除房間條目
			if len(clients) == 0 {
				delete(s.clients, client.RoomID)
			}
		}
	}
}

// GetRoomClients 獲取指定房間的在線客戶端數量
func (s *WebSocketManager) GetRoomClients(roomID string) int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()

	return len(s.clients[roomID])
}
