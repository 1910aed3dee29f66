package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/realtime"
)

type recordingBus struct {
	events []realtime.Event
}

func (b *recordingBus) Publish(_ context.Context, msg realtime.Event) error {
	b.events = append(b.events, msg)
	return nil
}

func (b *recordingBus) StartForwarder(context.Context, func(realtime.Event)) error { return nil }
func (b *recordingBus) Close() error                                              { return nil }

func TestActivityCompletedPublishesPointsEvent(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	rec := &recordingBus{}
	dispatcher := NewBusDispatcher(log, rec)

	tenantID := uuid.New()
	userID := uuid.New()
	activity := &types.Activity{ID: uuid.New(), Title: "Lesson"}

	dispatcher.ActivityCompleted(context.Background(), tenantID, userID, activity, 96, 18)
	if len(rec.events) != 2 {
		t.Fatalf("got %d events, want activity_completed plus points_awarded", len(rec.events))
	}
	if rec.events[0].Event != realtime.EventActivityCompleted {
		t.Fatalf("first event = %q", rec.events[0].Event)
	}
	if rec.events[1].Event != realtime.EventPointsAwarded {
		t.Fatalf("second event = %q", rec.events[1].Event)
	}
	if rec.events[1].Data["points"] != 18 {
		t.Fatalf("points = %v, want 18", rec.events[1].Data["points"])
	}
	wantChannel := realtime.UserChannel(tenantID, userID)
	for _, e := range rec.events {
		if e.Channel != wantChannel {
			t.Fatalf("channel = %q, want %q", e.Channel, wantChannel)
		}
	}
}

func TestActivityCompletedBelowPassingSkipsPointsEvent(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	rec := &recordingBus{}
	dispatcher := NewBusDispatcher(log, rec)

	activity := &types.Activity{ID: uuid.New(), Title: "Quiz"}
	dispatcher.ActivityCompleted(context.Background(), uuid.New(), uuid.New(), activity, 40, 0)
	if len(rec.events) != 1 {
		t.Fatalf("got %d events, want only activity_completed", len(rec.events))
	}
	if rec.events[0].Event != realtime.EventActivityCompleted {
		t.Fatalf("event = %q", rec.events[0].Event)
	}
}

func TestCourseCompletedPublishesPointsEvent(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	rec := &recordingBus{}
	dispatcher := NewBusDispatcher(log, rec)

	course := &types.Course{ID: uuid.New(), Title: "Course"}
	dispatcher.CourseCompleted(context.Background(), uuid.New(), uuid.New(), course, 150)
	if len(rec.events) != 2 {
		t.Fatalf("got %d events, want course_completed plus points_awarded", len(rec.events))
	}
	if rec.events[1].Event != realtime.EventPointsAwarded {
		t.Fatalf("second event = %q", rec.events[1].Event)
	}
	if rec.events[1].Data["source_type"] != "course" {
		t.Fatalf("source_type = %v", rec.events[1].Data["source_type"])
	}
}
