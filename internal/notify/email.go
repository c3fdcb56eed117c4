package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/butikdev/backend-butik/internal/common"
	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
	"github.com/butikdev/backend-butik/internal/events"
)

// EmailNotifier sends transactional emails for selected topics.
type EmailNotifier struct {
	Mail    common.EmailSender
	Enabled bool
	From    string
}

// Notify implements the events.Notifier interface.
func (n EmailNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	payload := map[string]any{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("email notify: decode payload: %w", err)
		}
	}
	to := extractRecipient(payload)
	if to == "" {
		return nil
	}
	return n.Mail.Send(to, subjectFor(event.Topic, payload), bodyFor(event.Topic, payload, event.OccurredAt.Time))
}

func extractRecipient(payload map[string]any) string {
	for _, key := range []string{"email", "customer_email"} {
		if s, ok := payload[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func subjectFor(topic string, payload map[string]any) string {
	orderNumber, _ := payload["order_number"].(string)
	switch topic {
	case events.TopicOrderPaid:
		return fmt.Sprintf("Orderbekräftelse %s", orderNumber)
	case events.TopicOrderCreated:
		return fmt.Sprintf("Vi har tagit emot din order %s", orderNumber)
	case events.TopicPaymentFailed:
		return "Din betalning gick inte igenom"
	default:
		return "Uppdatering om din order"
	}
}

func bodyFor(topic string, payload map[string]any, occurredAt time.Time) string {
	var sb strings.Builder
	orderNumber, _ := payload["order_number"].(string)
	switch topic {
	case events.TopicOrderPaid:
		fmt.Fprintf(&sb, "<p>Tack för din beställning! Order %s är betald.</p>", orderNumber)
		if total, ok := payload["total"].(string); ok {
			fmt.Fprintf(&sb, "<p>Totalt: %s</p>", total)
		}
	case events.TopicPaymentFailed:
		sb.WriteString("<p>Betalningen kunde inte genomföras. Försök igen eller välj ett annat betalsätt.</p>")
	default:
		fmt.Fprintf(&sb, "<p>Din order %s har uppdaterats.</p>", orderNumber)
	}
	if !occurredAt.IsZero() {
		fmt.Fprintf(&sb, "<p>%s</p>", occurredAt.Format("2006-01-02 15:04"))
	}
	return sb.String()
}
