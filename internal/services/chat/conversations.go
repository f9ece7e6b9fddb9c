package chat

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

// mergeConversations сводит комнаты пользователя в ленту: скрытые собеседники
// отбрасываются, на каждого собеседника остаётся самая активная комната
func mergeConversations(userID uuid.UUID, summaries []models.RoomSummary, hidden map[uuid.UUID]bool) []models.Conversation {
	best := make(map[uuid.UUID]models.Conversation)
	for _, summary := range summaries {
		counterpart, ok := summary.Counterpart(userID)
		if !ok || hidden[counterpart] {
			continue
		}
		conv := toConversation(summary, counterpart)
		if current, exists := best[counterpart]; !exists || newer(conv, current) {
			best[counterpart] = conv
		}
	}

	out := make([]models.Conversation, 0, len(best))
	for _, conv := range best {
		out = append(out, conv)
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i], out[j]) })
	return out
}

// newer упорядочивает по времени активности, при равенстве по ID комнаты
func newer(a, b models.Conversation) bool {
	if !a.LastActivity.Equal(b.LastActivity) {
		return a.LastActivity.After(b.LastActivity)
	}
	return bytes.Compare(a.RoomID[:], b.RoomID[:]) > 0
}

func toConversation(summary models.RoomSummary, counterpart uuid.UUID) models.Conversation {
	conv := models.Conversation{
		RoomID:       summary.Room.ID,
		Kind:         summary.Room.Scope.Kind(),
		Counterpart:  models.UserRef{ID: counterpart},
		LastActivity: summary.LastActivity(),
	}
	if summary.LastMessage != nil {
		msg := *summary.LastMessage
		conv.LastMessage = &msg
	}
	switch scope := summary.Room.Scope.(type) {
	case models.SwapScope:
		swapID := scope.SwapID
		conv.SwapID = &swapID
		if summary.Swap != nil {
			status := summary.Swap.Status
			conv.SwapStatus = &status
		}
	case models.DirectScope:
		conv.ItemID = scope.ItemID
	}
	return conv
}
