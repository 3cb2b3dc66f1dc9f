package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"logbook/internal/models"
	core "logbook/logservice/core"
)

// Server implements LogServiceServer on top of the core Service
type Server struct {
	svc    *core.Service
	logger *log.Logger
}

// NewServer creates a new gRPC Server instance
func NewServer(s *core.Service, l *log.Logger) *Server {
	return &Server{svc: s, logger: l}
}

// Create accepts the same fields as the HTTP body: text, timestamp, archived
func (s *Server) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	body, err := json.Marshal(req.AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "request must be an object")
	}

	input, err := models.DecodeLogInput(body)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	entry, err := s.svc.Create(ctx, *input)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return entryStruct(entry)
}

func (s *Server) ListActive(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	entries, err := s.svc.ListActive(ctx)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return entryList(entries)
}

func (s *Server) ListArchived(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	entries, err := s.svc.ListArchived(ctx)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return entryList(entries)
}

func (s *Server) Delete(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	entry, err := s.svc.Delete(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(err)
	}
	return entryStruct(entry)
}

func (s *Server) Archive(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	entry, err := s.svc.Archive(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(err)
	}
	return entryStruct(entry)
}

// toStatus maps the service error taxonomy onto gRPC codes
func (s *Server) toStatus(err error) error {
	switch {
	case core.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, core.ErrNotFound):
		return status.Error(codes.NotFound, "Log not found")
	default:
		s.logger.Printf("gRPC Server: Service layer error: %v", err)
		return status.Error(codes.Internal, "Server error")
	}
}

func entryMap(e *models.LogEntry) map[string]interface{} {
	return map[string]interface{}{
		"id":        e.ID,
		"text":      e.Text,
		"timestamp": e.Timestamp.Format(time.RFC3339Nano),
		"archived":  e.Archived,
	}
}

func entryStruct(e *models.LogEntry) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(entryMap(e))
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode entry: %v", err))
	}
	return st, nil
}

func entryList(entries []models.LogEntry) (*structpb.ListValue, error) {
	values := make([]interface{}, len(entries))
	for i := range entries {
		values[i] = entryMap(&entries[i])
	}
	lv, err := structpb.NewList(values)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode entries: %v", err))
	}
	return lv, nil
}

// Ensure Server implements the interface (compile-time check)
var _ LogServiceServer = (*Server)(nil)
