package promised

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GoSim-25-26J-441/promise-core/internal/metrics"
	"github.com/GoSim-25-26J-441/promise-core/internal/pipeline"
	"github.com/GoSim-25-26J-441/promise-core/pkg/logger"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCServer implements PromiseServiceServer on top of a Session
type GRPCServer struct {
	ctx     context.Context
	session *Session
}

var _ PromiseServiceServer = (*GRPCServer)(nil)

// NewGRPCServer creates a new GRPCServer for session. Cancelling ctx ends
// every open watch stream so a graceful stop can complete.
func NewGRPCServer(ctx context.Context, session *Session) *GRPCServer {
	return &GRPCServer{ctx: ctx, session: session}
}

// StopGRPCServer drains srv gracefully, closing every connection once ctx
// expires. It reports whether the graceful stop finished in time.
func StopGRPCServer(ctx context.Context, srv *grpc.Server) bool {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		logger.Warn("gRPC graceful stop timed out, closing connections", "error", ctx.Err())
		srv.Stop()
		<-done
		return false
	}
}

func (s *GRPCServer) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cfg, err := scenarioFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return toStruct(s.session.Evaluator().Evaluate(cfg))
}

func (s *GRPCServer) GetScenario(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.session.Current().Scenario)
}

func (s *GRPCServer) UpdateScenario(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cfg, err := scenarioFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ev := s.session.Update(cfg, metrics.SourceUser)
	logger.Info("scenario replaced (gRPC)", "evaluation_id", ev.ID)
	return toStruct(ev)
}

func (s *GRPCServer) ApplyActions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.session.ApplyActions(metrics.SourceApply))
}

func (s *GRPCServer) WatchEvaluations(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	updates, cancel := s.session.Subscribe()
	defer cancel()

	send := func(ev *pipeline.Evaluation) error {
		msg, err := toStruct(ev)
		if err != nil {
			return err
		}
		return stream.Send(msg)
	}

	if err := send(s.session.Current()); err != nil {
		return err
	}
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case <-stream.Context().Done():
			return stream.Context().Err()
		case ev, ok := <-updates:
			if !ok {
				return nil
			}
			if err := send(ev); err != nil {
				return err
			}
		}
	}
}

// scenarioFromStruct decodes a scenario; omitted fields keep their defaults
func scenarioFromStruct(s *structpb.Struct) (models.ScenarioConfig, error) {
	cfg := models.DefaultScenario()
	if s == nil {
		return cfg, nil
	}
	if err := fromStruct(s, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid scenario: %w", err)
	}
	return cfg, nil
}

// toStruct converts v to a Struct through its JSON encoding
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func fromStruct(s *structpb.Struct, v any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
