package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tutor_room/internal/models"
	"tutor_room/internal/service"
)

// RoomHandler 處理與教室相關的請求
type RoomHandler struct {
	roomService  *service.RoomService
	access       *service.RoomAccessValidator
	tokenService *service.RoomTokenService
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(roomService *service.RoomService, access *service.RoomAccessValidator, tokenService *service.RoomTokenService) *RoomHandler {
	return &RoomHandler{
		roomService:  roomService,
		access:       access,
		tokenService: tokenService,
	}
}

// CreateRoom 處理排課方建立教室的請求
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var input struct {
		TutorID        uint      `json:"tutor_id" binding:"required"`
		StudentID      uint      `json:"student_id" binding:"required"`
		ScheduledStart time.Time `json:"scheduled_start" binding:"required"`
		ScheduledEnd   time.Time `json:"scheduled_end" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.roomService.CreateRoom(input.TutorID, input.StudentID, input.ScheduledStart, input.ScheduledEnd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "建立教室失敗"})
		return
	}

	c.JSON(http.StatusCreated, room)
}

// ListRooms 處理獲取教室列表的請求
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomService.ListRooms()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查詢教室列表失敗"})
		return
	}

	c.JSON(http.StatusOK, rooms)
}

// GetRoom 處理獲取教室訊息的請求，帳務方以此讀取狀態與實際時長
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.roomService.GetRoom(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查詢教室失敗"})
		return
	}

	c.JSON(http.StatusOK, room)
}

// JoinRoom 處理加入教室的請求
// 通過授權檢查後記錄加入並簽發短效房間憑證，供 WebSocket 連線與媒體傳輸使用
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	roomID := c.Param("id")
	userID := c.GetUint("userID")
	role := c.GetString("userRole")

	if err := h.access.Authorize(roomID, userID); err != nil {
		h.renderAccessError(c, err)
		return
	}

	room, err := h.roomService.JoinRoom(roomID, userID)
	if err != nil {
		if errors.Is(err, service.ErrRoomAlreadyEnded) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.tokenService.Issue(roomID, userID, models.UserRole(role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "簽發房間憑證失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room":       room,
		"room_token": token,
	})
}

// EndRoom 處理明確結束課程的請求
// 對已結束的教室回報 already_ended，呼叫端視為「沒事可做」而非錯誤
func (h *RoomHandler) EndRoom(c *gin.Context) {
	roomID := c.Param("id")
	userID := c.GetUint("userID")

	if err := h.access.Authorize(roomID, userID); err != nil {
		h.renderAccessError(c, err)
		return
	}

	room, err := h.roomService.EndRoom(roomID)
	if err != nil {
		if errors.Is(err, service.ErrRoomAlreadyEnded) {
			c.JSON(http.StatusOK, gin.H{"message": err.Error(), "already_ended": true})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, room)
}

// StartRecording 處理開始錄影的請求
func (h *RoomHandler) StartRecording(c *gin.Context) {
	roomID := c.Param("id")
	userID := c.GetUint("userID")

	if err := h.access.Authorize(roomID, userID); err != nil {
		h.renderAccessError(c, err)
		return
	}

	room, err := h.roomService.StartRecording(roomID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, room)
}

// StopRecording 處理停止錄影的請求
func (h *RoomHandler) StopRecording(c *gin.Context) {
	roomID := c.Param("id")
	userID := c.GetUint("userID")

	if err := h.access.Authorize(roomID, userID); err != nil {
		h.renderAccessError(c, err)
		return
	}

	room, err := h.roomService.StopRecording(roomID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, room)
}

// renderAccessError 把授權錯誤轉為對應的 HTTP 狀態
// 404 與 403 分開回報，存在與否和權限與否不混為一談
func (h *RoomHandler) renderAccessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRoomAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "授權檢查失敗"})
	}
}
