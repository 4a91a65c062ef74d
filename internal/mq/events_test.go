package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/shaiso/slicerun/internal/domain"
	"github.com/shaiso/slicerun/internal/lifecycle"
)

var _ lifecycle.Observer = (*EventPublisher)(nil)

type published struct {
	key RoutingKey
	msg *Message
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, key RoutingKey, msg *Message) error {
	f.sent = append(f.sent, published{key: key, msg: msg})
	return f.err
}

func TestEventPublisher_RunLifecycle(t *testing.T) {
	pub := &fakePublisher{}
	ep := NewEventPublisher(pub, nil)
	ctx := context.Background()

	run := domain.NewRun("T1", "owner@example.com", "topology_spec.yaml")
	run.MarkRunning()
	ep.RunStarted(ctx, run)

	started := time.Now()
	finished := started.Add(1500 * time.Millisecond)
	rec := domain.StepRecord{
		Step:       domain.StepUndeploy,
		Phase:      domain.PhaseCleanup,
		Status:     domain.StepStatusWarning,
		Error:      "undeploy timed out",
		StartedAt:  started,
		FinishedAt: &finished,
	}
	run.Steps = append(run.Steps, rec)
	ep.StepStarted(ctx, run, domain.StepUndeploy)
	ep.StepFinished(ctx, run, rec, errors.New("undeploy timed out"))

	run.State = domain.TopologyStateDeleted
	run.MarkSucceeded()
	ep.RunFinished(ctx, run)

	if len(pub.sent) != 3 {
		t.Fatalf("expected 3 events, got %d", len(pub.sent))
	}

	keys := []RoutingKey{pub.sent[0].key, pub.sent[1].key, pub.sent[2].key}
	wantKeys := []RoutingKey{RoutingKeyRunStarted, RoutingKeyStepFinished, RoutingKeyRunFinished}
	if diff := cmp.Diff(wantKeys, keys); diff != "" {
		t.Errorf("routing keys mismatch (-want +got):\n%s", diff)
	}

	startedPayload, err := ParsePayload[RunStartedPayload](pub.sent[0].msg)
	if err != nil {
		t.Fatalf("parse run.started: %v", err)
	}
	if diff := cmp.Diff(RunStartedPayload{
		RunID:       run.ID,
		SysTestName: "T1",
		Owner:       "owner@example.com",
		SpecPath:    "topology_spec.yaml",
	}, startedPayload); diff != "" {
		t.Errorf("run.started payload mismatch (-want +got):\n%s", diff)
	}

	step, err := ParsePayload[StepFinishedPayload](pub.sent[1].msg)
	if err != nil {
		t.Fatalf("parse step.finished: %v", err)
	}
	if step.Status != domain.StepStatusWarning || step.DurationMs != 1500 {
		t.Errorf("unexpected step payload: %+v", step)
	}

	done, err := ParsePayload[RunFinishedPayload](pub.sent[2].msg)
	if err != nil {
		t.Fatalf("parse run.finished: %v", err)
	}
	if done.Status != domain.RunStatusSucceeded || done.State != domain.TopologyStateDeleted || done.Warnings != 1 {
		t.Errorf("unexpected run.finished payload: %+v", done)
	}

	for _, p := range pub.sent {
		if p.msg.ID == "" || p.msg.Timestamp.IsZero() {
			t.Errorf("message envelope not filled: %+v", p.msg)
		}
		if string(p.msg.Type) != string(p.key) {
			t.Errorf("type %s does not match routing key %s", p.msg.Type, p.key)
		}
	}
}

func TestEventPublisher_PublishErrorIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: ErrNoChannel}
	ep := NewEventPublisher(pub, nil)

	run := domain.NewRun("T1", "o", "")
	ep.RunStarted(context.Background(), run)
	ep.RunFinished(context.Background(), run)

	if len(pub.sent) != 2 {
		t.Errorf("expected both events attempted, got %d", len(pub.sent))
	}
}

func TestEventPublisher_CancelledContext(t *testing.T) {
	var gotErr error
	pub := publisherFunc(func(ctx context.Context, _ RoutingKey, _ *Message) error {
		gotErr = ctx.Err()
		return nil
	})
	ep := NewEventPublisher(pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ep.RunFinished(ctx, domain.NewRun("T1", "o", ""))

	if gotErr != nil {
		t.Errorf("run.finished must be published after cancellation, ctx err = %v", gotErr)
	}
}

type publisherFunc func(ctx context.Context, key RoutingKey, msg *Message) error

func (f publisherFunc) Publish(ctx context.Context, key RoutingKey, msg *Message) error {
	return f(ctx, key, msg)
}

func TestDecodeMessage(t *testing.T) {
	msg, err := NewMessage(MessageTypeRunStarted, RunStartedPayload{SysTestName: "T1"})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}

	body := []byte(`{"id":"` + msg.ID + `","type":"run.started","payload":{"systest_name":"T1"},"timestamp":"2026-01-02T03:04:05Z"}`)
	got, err := DecodeMessage(body)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if got.ID != msg.ID || got.Type != MessageTypeRunStarted {
		t.Errorf("unexpected envelope: %+v", got)
	}

	tests := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"no type", `{"id":"x","payload":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeMessage([]byte(tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
