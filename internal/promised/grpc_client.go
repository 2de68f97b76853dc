package promised

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/promise-core/internal/pipeline"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a typed client for promise.v1.PromiseService
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on cc
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Evaluate scores cfg without changing the daemon's session
func (c *Client) Evaluate(ctx context.Context, cfg models.ScenarioConfig, opts ...grpc.CallOption) (*pipeline.Evaluation, error) {
	in, err := toStruct(cfg)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodEvaluate, in, out, opts...); err != nil {
		return nil, err
	}
	return decodeEvaluation(out)
}

// GetScenario returns the daemon's current scenario
func (c *Client) GetScenario(ctx context.Context, opts ...grpc.CallOption) (models.ScenarioConfig, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetScenario, &emptypb.Empty{}, out, opts...); err != nil {
		return models.ScenarioConfig{}, err
	}
	var cfg models.ScenarioConfig
	if err := fromStruct(out, &cfg); err != nil {
		return models.ScenarioConfig{}, fmt.Errorf("decode scenario: %w", err)
	}
	return cfg, nil
}

// UpdateScenario replaces the daemon's scenario
func (c *Client) UpdateScenario(ctx context.Context, cfg models.ScenarioConfig, opts ...grpc.CallOption) (*pipeline.Evaluation, error) {
	in, err := toStruct(cfg)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodUpdateScenario, in, out, opts...); err != nil {
		return nil, err
	}
	return decodeEvaluation(out)
}

// ApplyActions applies the daemon's current recommendations
func (c *Client) ApplyActions(ctx context.Context, opts ...grpc.CallOption) (*pipeline.Evaluation, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodApplyActions, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return decodeEvaluation(out)
}

// EvaluationStream receives evaluations from WatchEvaluations
type EvaluationStream struct {
	stream grpc.ClientStream
}

// Recv blocks for the next evaluation
func (s *EvaluationStream) Recv() (*pipeline.Evaluation, error) {
	out := new(structpb.Struct)
	if err := s.stream.RecvMsg(out); err != nil {
		return nil, err
	}
	return decodeEvaluation(out)
}

// WatchEvaluations streams the current evaluation and every later one until
// ctx is cancelled
func (c *Client) WatchEvaluations(ctx context.Context, opts ...grpc.CallOption) (*EvaluationStream, error) {
	stream, err := c.cc.NewStream(ctx, &PromiseServiceDesc.Streams[0], methodWatchEvaluations, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EvaluationStream{stream: stream}, nil
}

// decodeEvaluation decodes a wire evaluation. Actions carry their changes
// but no Apply function.
func decodeEvaluation(s *structpb.Struct) (*pipeline.Evaluation, error) {
	var ev pipeline.Evaluation
	if err := fromStruct(s, &ev); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}
	return &ev, nil
}
