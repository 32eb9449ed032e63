package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"

	"github.com/juhe-dining/roster/backend/internal/domain"
)

// ackRecorder 记录每条投递被确认的方式，用来检查消费循环
// 对同一条投递只做一次 Ack 或 Nack。
type ackRecorder struct {
	mu    sync.Mutex
	acks  int
	nacks int
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type stubApplier struct {
	approved  []*domain.LeaveApprovedEvent
	cancelled []*domain.LeaveCancelledEvent
}

func (s *stubApplier) ApplyLeaveApproved(evt *domain.LeaveApprovedEvent) (int, error) {
	s.approved = append(s.approved, evt)
	return 1, nil
}

func (s *stubApplier) ApplyLeaveCancelled(evt *domain.LeaveCancelledEvent) (int, error) {
	s.cancelled = append(s.cancelled, evt)
	return 1, nil
}

func runLeaveConsumer(t *testing.T, applier leaveEventApplier, body string) *ackRecorder {
	t.Helper()

	recorder := &ackRecorder{}
	msgs := make(chan amqp.Delivery)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumeLeaveEvents(ctx, logger, applier, msgs)
	}()

	msgs <- amqp.Delivery{Acknowledger: recorder, DeliveryTag: 1, Body: []byte(body)}
	cancel()
	<-done

	return recorder
}

func TestConsumeLeaveEventsApproved(t *testing.T) {
	applier := &stubApplier{}
	recorder := runLeaveConsumer(t, applier,
		`{"type":"leave_approved","data":{"userID":101,"startDate":"2025-03-03","endDate":"2025-03-05","balanceSufficient":true}}`)

	assert.Equal(t, 1, recorder.acks)
	assert.Equal(t, 0, recorder.nacks)
	if assert.Len(t, applier.approved, 1) {
		assert.Equal(t, int64(101), applier.approved[0].UserID)
		assert.True(t, applier.approved[0].BalanceSufficient)
	}
}

func TestConsumeLeaveEventsCancelled(t *testing.T) {
	applier := &stubApplier{}
	recorder := runLeaveConsumer(t, applier,
		`{"type":"leave_cancelled","data":{"userID":101,"startDate":"2025-03-03","endDate":"2025-03-05"}}`)

	assert.Equal(t, 1, recorder.acks)
	assert.Equal(t, 0, recorder.nacks)
	assert.Len(t, applier.cancelled, 1)
}

func TestConsumeLeaveEventsUnknownType(t *testing.T) {
	applier := &stubApplier{}
	recorder := runLeaveConsumer(t, applier, `{"type":"leave_rescheduled","data":{}}`)

	// 不认识的事件类型只 Nack 一次，绝不能再 Ack 同一条投递
	assert.Equal(t, 1, recorder.nacks)
	assert.Equal(t, 0, recorder.acks)
	assert.Empty(t, applier.approved)
	assert.Empty(t, applier.cancelled)
}

func TestConsumeLeaveEventsBadPayload(t *testing.T) {
	applier := &stubApplier{}
	recorder := runLeaveConsumer(t, applier, `not json`)

	assert.Equal(t, 1, recorder.nacks)
	assert.Equal(t, 0, recorder.acks)
}
