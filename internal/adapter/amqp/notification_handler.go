package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/logger"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

// NotificationHandler consumes the status fanout and logs every update. It
// stands in for the dashboard fan-out, which is outside this service.
type NotificationHandler struct {
	logger logger.Logger
}

func NewNotificationHandler(lgr logger.Logger) *NotificationHandler {
	return &NotificationHandler{logger: lgr}
}

func (h *NotificationHandler) HandleStatusUpdate(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse status update", "", nil, err)
		return fmt.Errorf("failed to parse status update: %w", err)
	}

	h.logger.Info("status_update", fmt.Sprintf("Order %s: %s -> %s", msg.OrderNumber, msg.OldStatus, msg.NewStatus), "", map[string]interface{}{
		"order_number": msg.OrderNumber,
		"old_status":   string(msg.OldStatus),
		"new_status":   string(msg.NewStatus),
		"changed_by":   msg.ChangedBy,
	})
	return nil
}
