package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

const (
	// DefaultSubject is where availability notices are published.
	DefaultSubject = "usuarios.disponible"

	channelID = "usuarios_channel"
	title     = "Nuevo usuario disponible"
)

// Notification is the payload delivered to the notification surface. The
// deep link carries enough to open a tracking view scoped to the user.
type Notification struct {
	Channel  string                 `json:"canal"`
	Title    string                 `json:"titulo"`
	Body     string                 `json:"mensaje"`
	DeepLink domain.BecameAvailable `json:"destino"`
}

// NATSNotifier publishes availability notices to a NATS subject. Publishing
// is fire-and-forget: the watcher is never blocked and failures are only
// logged.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

// NewNATSNotifier builds a notifier on the given connection. A nil connection
// yields a notifier that drops everything, for local setups without NATS.
func NewNATSNotifier(conn *nats.Conn, subject string, logger *zap.Logger) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSNotifier{conn: conn, subject: subject, logger: logger}
}

// Notify satisfies domain.Notifier.
func (n *NATSNotifier) Notify(ctx context.Context, event domain.BecameAvailable) {
	if n == nil || n.conn == nil {
		return
	}
	notification := Notification{
		Channel:  channelID,
		Title:    title,
		Body:     fmt.Sprintf("%s %s está ahora disponible", event.FirstName, event.LastName),
		DeepLink: event,
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		n.logger.Warn("marshal notification", zap.Error(err))
		return
	}
	msg := &nats.Msg{Subject: n.subject, Data: payload, Header: map[string][]string{
		"x-trace-id": {traceIDFromContext(ctx)},
		"x-user-id":  {event.UserID},
	}}
	if err := n.conn.PublishMsg(msg); err != nil {
		n.logger.Warn("publish notification", zap.String("uid", event.UserID), zap.Error(err))
	}
}

func traceIDFromContext(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	sc := span.SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
