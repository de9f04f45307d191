package board

import (
	"cmp"
	"slices"

	"irisboard.dev/internal/models"
)

// SortMessagesNewestFirst orders by timestamp descending. Messages without a
// known timestamp go last, in their original order.
func SortMessagesNewestFirst(messages []models.Message) {
	slices.SortStableFunc(messages, func(a, b models.Message) int {
		ta, okA := a.Timestamp.Instant().UnixMilli()
		tb, okB := b.Timestamp.Instant().UnixMilli()
		switch {
		case okA && okB:
			return cmp.Compare(tb, ta)
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
}
