package tracking

import (
	"io"

	"go.uber.org/zap"

	"github.com/danieleon08/Taller3-Movil/internal/presence/domain"
)

// Server ingests device fix streams and routes them through the per-user
// trackers. Malformed messages (no uid) are dropped without closing the
// stream.
type Server struct {
	hub    *Hub
	logger *zap.Logger
}

// NewServer constructs the ingest server.
func NewServer(hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{hub: hub, logger: logger}
}

// StreamFixes applies the movement threshold to each incoming fix.
func (s *Server) StreamFixes(stream FixIngest_StreamFixesServer) error {
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			return stream.SendAndClose(&Ack{})
		}
		if err != nil {
			return err
		}
		if msg.Uid == "" {
			continue
		}
		fix := domain.Fix{Lat: msg.Lat, Lng: msg.Lng, Timestamp: msg.Ts}
		if _, err := s.hub.Tracker(msg.Uid).OnFix(stream.Context(), fix); err != nil {
			s.logger.Warn("fix rejected", zap.String("uid", msg.Uid), zap.Error(err))
		}
	}
}
