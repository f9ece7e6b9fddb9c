package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating представляет оценку участника после завершённого обмена
type Rating struct {
	ID         uuid.UUID `json:"id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	SwapID     uuid.UUID `json:"swap_id"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

// NextAverage пересчитывает скользящее среднее с учётом новой оценки
func NextAverage(avg float64, count int, score int) (float64, int) {
	newCount := count + 1
	return (avg*float64(count) + float64(score)) / float64(newCount), newCount
}
