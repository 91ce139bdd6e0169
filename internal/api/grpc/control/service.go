// Package control implements the samepaged.v1 ControlService.
package control

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	samepagedv1 "github.com/cowpool/samepaged/api/gen/go/samepaged/v1"
	apperrors "github.com/cowpool/samepaged/internal/errors"
)

// engine is the command surface the control service drives. All calls go
// through the daemon's single command queue.
type engine interface {
	Add(ctx context.Context, pid, start, end uint64) error
	Del(ctx context.Context, pid uint64) error
	Merge(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// Service handles control-plane gRPC requests.
type Service struct {
	samepagedv1.UnimplementedControlServiceServer

	engine engine
}

// NewService creates the control service backed by the given engine.
func NewService(engine engine) *Service {
	return &Service{engine: engine}
}

// Add registers a process, or a range within it, for monitoring.
func (s *Service) Add(ctx context.Context, in *samepagedv1.AddRequest) (*samepagedv1.AddResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "add request is required")
	}
	if s == nil || s.engine == nil {
		return nil, status.Error(codes.Internal, "control service is not configured")
	}
	if in.GetPid() == 0 {
		return nil, status.Error(codes.InvalidArgument, "pid is required")
	}

	if err := s.engine.Add(ctx, in.GetPid(), in.GetStart(), in.GetEnd()); err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &samepagedv1.AddResponse{}, nil
}

// Del stops monitoring a process and releases its merged pages.
func (s *Service) Del(ctx context.Context, in *samepagedv1.DelRequest) (*samepagedv1.DelResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "del request is required")
	}
	if s == nil || s.engine == nil {
		return nil, status.Error(codes.Internal, "control service is not configured")
	}
	if in.GetPid() == 0 {
		return nil, status.Error(codes.InvalidArgument, "pid is required")
	}

	if err := s.engine.Del(ctx, in.GetPid()); err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &samepagedv1.DelResponse{}, nil
}

// Merge runs one merge pass over every monitored task.
func (s *Service) Merge(ctx context.Context, in *samepagedv1.MergeRequest) (*samepagedv1.MergeResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "merge request is required")
	}
	if s == nil || s.engine == nil {
		return nil, status.Error(codes.Internal, "control service is not configured")
	}

	if err := s.engine.Merge(ctx); err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &samepagedv1.MergeResponse{}, nil
}

// Refresh runs one refresh pass, demoting merged pages whose content diverged.
func (s *Service) Refresh(ctx context.Context, in *samepagedv1.RefreshRequest) (*samepagedv1.RefreshResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "refresh request is required")
	}
	if s == nil || s.engine == nil {
		return nil, status.Error(codes.Internal, "control service is not configured")
	}

	if err := s.engine.Refresh(ctx); err != nil {
		return nil, apperrors.HandleError(err)
	}
	return &samepagedv1.RefreshResponse{}, nil
}
