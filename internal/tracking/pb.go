package tracking

import "google.golang.org/grpc"

// FixUpdate is one device position in a stream.
type FixUpdate struct {
	Uid string
	Lat float64
	Lng float64
	Ts  int64
}

// Ack closes the stream.
type Ack struct{}

// FixIngestServer defines the gRPC contract for position ingestion.
type FixIngestServer interface {
	StreamFixes(FixIngest_StreamFixesServer) error
}

// RegisterFixIngestServer registers the service implementation.
func RegisterFixIngestServer(s *grpc.Server, srv FixIngestServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "tracking.FixIngest",
		HandlerType: (*FixIngestServer)(nil),
		Streams: []grpc.StreamDesc{{
			StreamName:    "StreamFixes",
			Handler:       _FixIngest_StreamFixes_Handler,
			ServerStreams: true,
			ClientStreams: true,
		}},
	}, srv)
}

// FixIngest_StreamFixesServer defines the bidi stream interface.
type FixIngest_StreamFixesServer interface {
	grpc.ServerStream
	SendAndClose(*Ack) error
	Recv() (*FixUpdate, error)
}

func _FixIngest_StreamFixes_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(FixIngestServer).StreamFixes(&fixIngestStreamServer{ServerStream: stream})
}

type fixIngestStreamServer struct {
	grpc.ServerStream
}

func (s *fixIngestStreamServer) SendAndClose(*Ack) error { return nil }

func (s *fixIngestStreamServer) Recv() (*FixUpdate, error) {
	msg := new(FixUpdate)
	if err := s.ServerStream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return msg, nil
}
