package service

import (
	"errors"
	"fmt"
)

// 即時教室子系統的錯誤分類
// 呼叫端以 errors.Is 判斷種類：過期可重新取得憑證再試，偽造則一律拒絕
var (
	ErrRoomNotFound     = errors.New("房間不存在")
	ErrRoomAccessDenied = errors.New("無權存取該房間")
	ErrRoomAlreadyEnded = errors.New("房間已結束")
	ErrRoomNotActive    = errors.New("房間未在進行中")

	ErrTokenInvalid   = errors.New("無效的房間憑證")
	ErrTokenExpired   = errors.New("房間憑證已過期")
	ErrTokenMalformed = errors.New("房間憑證格式錯誤")

	ErrNotificationNotFound = errors.New("通知不存在")
)

// ErrTokenRoomMismatch 是 ErrTokenInvalid 的一種：憑證聲明的房間與目標房間不符
// 憑證離開其聲明的房間即無意義，即使是同一位用戶也不得跨房間使用
var ErrTokenRoomMismatch = fmt.Errorf("%w：房間不符", ErrTokenInvalid)
