package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionForTransition(t *testing.T) {
	tests := []struct {
		name     string
		previous OrderStatus
		next     OrderStatus
		want     ReservationAction
	}{
		{"confirmed to shipped confirms", StatusConfirmed, StatusShipped, ActionConfirm},
		{"paid to shipped confirms", StatusPaid, StatusShipped, ActionConfirm},
		{"processing to shipped confirms", StatusProcessing, StatusShipped, ActionConfirm},
		{"pending to failed releases", StatusPending, StatusFailed, ActionRelease},
		{"paid to failed releases", StatusPaid, StatusFailed, ActionRelease},
		{"pending to confirmed does nothing", StatusPending, StatusConfirmed, ActionNone},
		{"paid to processing does nothing", StatusPaid, StatusProcessing, ActionNone},
		{"shipped to delivered does nothing", StatusShipped, StatusDelivered, ActionNone},
		// 乱序或跳态到达时按目标状态兜底
		{"unknown previous to shipped still confirms", "", StatusShipped, ActionConfirm},
		{"pending straight to shipped still confirms", StatusPending, StatusShipped, ActionConfirm},
		{"delivered to failed still releases", StatusDelivered, StatusFailed, ActionRelease},
		{"unknown target does nothing", StatusPaid, "REFUNDED", ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActionForTransition(tt.previous, tt.next))
		})
	}
}
