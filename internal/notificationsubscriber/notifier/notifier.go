package notifier

import (
	"fmt"
	"io"
	"time"

	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/models"
)

// Notifier prints status updates for operators watching the fanout.
type Notifier struct {
	out   io.Writer
	mylog *logger.Logger
}

func NewNotifier(out io.Writer, mylog *logger.Logger) *Notifier {
	return &Notifier{out: out, mylog: mylog}
}

func Format(update models.StatusUpdateMessage) string {
	msg := fmt.Sprintf("Notification for order %s: Status changed from '%s' to '%s' by %s at %s",
		update.OrderNumber,
		update.OldStatus,
		update.NewStatus,
		update.ChangedBy,
		update.Timestamp.UTC().Format(time.RFC3339),
	)
	if update.Notes != "" {
		msg += fmt.Sprintf(". Notes: %s", update.Notes)
	}
	return msg
}

func (n *Notifier) DisplayNotification(update models.StatusUpdateMessage) {
	fmt.Fprintln(n.out, Format(update))
	n.mylog.Action("notification_displayed").Debug("Displayed notification",
		"order_number", update.OrderNumber, "new_status", update.NewStatus)
}
