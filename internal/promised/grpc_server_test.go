package promised

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/promise-core/internal/metrics"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func newBufconnClient(t *testing.T, session *Session) *Client {
	t.Helper()
	_, client := newBufconnServer(t, context.Background(), session)
	return client
}

func newBufconnServer(t *testing.T, ctx context.Context, session *Session) (*grpc.Server, *Client) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterPromiseServiceServer(srv, NewGRPCServer(ctx, session))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return srv, NewClient(conn)
}

func TestGRPCServerDirectCalls(t *testing.T) {
	session := NewSession(nil, models.DefaultScenario(), nil)
	ctx := context.Background()
	srv := NewGRPCServer(ctx, session)

	got, err := srv.GetScenario(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("GetScenario error: %v", err)
	}
	if got.Fields["policy"].GetStringValue() != string(models.PolicyBalanced) {
		t.Fatalf("policy = %v", got.Fields["policy"])
	}

	in, err := structpb.NewStruct(map[string]any{"surge": 2.0})
	if err != nil {
		t.Fatal(err)
	}
	_, err = srv.UpdateScenario(ctx, in)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	bad, _ := structpb.NewStruct(map[string]any{"surge": "high"})
	if _, err := srv.Evaluate(ctx, bad); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for a malformed scenario, got %v", err)
	}
}

func TestGRPCClientRoundTrip(t *testing.T) {
	session := NewSession(nil, models.DefaultScenario(), nil)
	client := newBufconnClient(t, session)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := client.GetScenario(ctx)
	if err != nil {
		t.Fatalf("GetScenario error: %v", err)
	}
	if cfg != models.DefaultScenario() {
		t.Fatalf("unexpected scenario: %+v", cfg)
	}

	before := session.Current().ID
	ev, err := client.Evaluate(ctx, models.ScenarioConfig{Surge: 0.9, Policy: models.PolicyAggressive})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if ev.Scenario.Policy != models.PolicyAggressive || ev.KPI.Orders <= 0 {
		t.Fatalf("unexpected evaluation: %+v", ev)
	}
	if session.Current().ID != before {
		t.Fatal("Evaluate must not change the session")
	}

	next := models.DefaultScenario()
	next.Weather = 0.7
	updated, err := client.UpdateScenario(ctx, next)
	if err != nil {
		t.Fatalf("UpdateScenario error: %v", err)
	}
	if updated.ID != session.Current().ID || updated.Scenario.Weather != 0.7 {
		t.Fatalf("unexpected update: %+v", updated.Scenario)
	}
	if len(updated.Actions) != len(session.Current().Actions) {
		t.Fatalf("actions = %d, want %d", len(updated.Actions), len(session.Current().Actions))
	}
	for _, a := range updated.Actions {
		if a.Apply != nil {
			t.Fatal("decoded actions should not carry an Apply function")
		}
	}

	invalid := models.DefaultScenario()
	invalid.Rebalance = 0.9
	if _, err := client.UpdateScenario(ctx, invalid); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	applied, err := client.ApplyActions(ctx)
	if err != nil {
		t.Fatalf("ApplyActions error: %v", err)
	}
	if applied.Scenario.Policy != models.PolicyReliable {
		t.Fatalf("policy = %s, want Reliable", applied.Scenario.Policy)
	}
}

func TestGRPCWatchEvaluations(t *testing.T) {
	session := NewSession(nil, models.DefaultScenario(), nil)
	client := newBufconnClient(t, session)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.WatchEvaluations(ctx)
	if err != nil {
		t.Fatalf("WatchEvaluations error: %v", err)
	}

	first, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv error: %v", err)
	}
	if first.ID != session.Current().ID {
		t.Fatalf("first = %s, want current %s", first.ID, session.Current().ID)
	}

	ev, err := session.Patch([]models.Delta{{Field: models.FieldMemberMix, Op: models.OpSet, Value: 0.8}}, metrics.SourceUser)
	if err != nil {
		t.Fatalf("Patch error: %v", err)
	}
	next, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv error: %v", err)
	}
	if next.ID != ev.ID || next.Scenario.MemberMix != 0.8 {
		t.Fatalf("unexpected streamed evaluation: %s %+v", next.ID, next.Scenario)
	}

	cancel()
	if _, err := stream.Recv(); status.Code(err) != codes.Canceled {
		t.Fatalf("expected Canceled after cancel, got %v", err)
	}
}

func openWatch(t *testing.T, client *Client) *EvaluationStream {
	t.Helper()
	stream, err := client.WatchEvaluations(context.Background())
	if err != nil {
		t.Fatalf("WatchEvaluations error: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("Recv error: %v", err)
	}
	return stream
}

func TestGRPCGracefulStopWithOpenWatch(t *testing.T) {
	session := NewSession(nil, models.DefaultScenario(), nil)
	serverCtx, shutdown := context.WithCancel(context.Background())
	srv, client := newBufconnServer(t, serverCtx, session)
	stream := openWatch(t, client)

	shutdown()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !StopGRPCServer(stopCtx, srv) {
		t.Fatal("graceful stop should finish once the server context is cancelled")
	}
	if _, err := stream.Recv(); err == nil {
		t.Fatal("watch stream should end after the server stops")
	}
}

func TestStopGRPCServerForcesStopAfterDeadline(t *testing.T) {
	session := NewSession(nil, models.DefaultScenario(), nil)
	srv, client := newBufconnServer(t, context.Background(), session)
	openWatch(t, client)

	stopCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	if StopGRPCServer(stopCtx, srv) {
		t.Fatal("a watch that never ends should force a hard stop")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("stop took %v", elapsed)
	}
}
