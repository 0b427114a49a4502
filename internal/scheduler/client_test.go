package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

type fakeSchedulerConfig struct {
	redisURL    string
	tlsInsecure bool
	queue       string
	concurrency int
}

func (c fakeSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c fakeSchedulerConfig) GetRedisTLSInsecure() bool { return c.tlsInsecure }
func (c fakeSchedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c fakeSchedulerConfig) GetAsynqConcurrency() int  { return c.concurrency }

func TestBulkProgressionPayload_RoundTrip(t *testing.T) {
	orgID := uuid.New().String()

	task, err := NewBulkProgressionTask(BulkProgressionPayload{OrganizationID: orgID})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if task.Type() != TaskBulkProgression {
		t.Fatalf("expected task type %q, got %q", TaskBulkProgression, task.Type())
	}

	payload, err := ParseBulkProgressionPayload(task)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.OrganizationID != orgID {
		t.Fatalf("expected org %s, got %s", orgID, payload.OrganizationID)
	}
}

func TestRedisClientOpt_ParsesURL(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6379/2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "localhost:6379" {
		t.Fatalf("expected addr localhost:6379, got %s", opt.Addr)
	}
	if opt.Password != "secret" {
		t.Fatalf("expected password to carry over, got %q", opt.Password)
	}
	if opt.DB != 2 {
		t.Fatalf("expected db 2, got %d", opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Fatal("expected no TLS config for a plain redis:// URL")
	}
}

func TestRedisClientOpt_TLSInsecure(t *testing.T) {
	opt, err := redisClientOpt("rediss://localhost:6380", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected InsecureSkipVerify on the TLS config")
	}
}

func TestRedisClientOpt_RejectsInvalidURL(t *testing.T) {
	if _, err := redisClientOpt("not-a-url", false); err == nil {
		t.Fatal("expected error for invalid redis URL")
	}
}

func TestClient_ScheduleBulkProgression(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(fakeSchedulerConfig{
		redisURL: "redis://" + mr.Addr(),
		queue:    "crm",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer func() { _ = client.Close() }()

	payload := BulkProgressionPayload{OrganizationID: uuid.New().String()}
	runAt := time.Now().Add(time.Hour)

	if err := client.ScheduleBulkProgression(context.Background(), payload, runAt); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if !mr.Exists("asynq:{crm}:scheduled") {
		t.Fatalf("expected the task on the scheduled queue, keys: %v", mr.Keys())
	}
}

func TestClient_EnqueueHeatRecalc(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(fakeSchedulerConfig{
		redisURL: "redis://" + mr.Addr(),
		queue:    "crm",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer func() { _ = client.Close() }()

	payload := HeatRecalcPayload{
		ContactID:      uuid.New().String(),
		OrganizationID: uuid.New().String(),
	}

	if err := client.EnqueueHeatRecalc(context.Background(), payload); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if !mr.Exists("asynq:{crm}:pending") {
		t.Fatalf("expected the task on the pending queue, keys: %v", mr.Keys())
	}
}
