package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"sensor_console/internal/logger"
	"sensor_console/internal/models"
	"sensor_console/internal/repository"
)

// journalWriteTimeout bounds a single append issued from a non-request path.
const journalWriteTimeout = 2 * time.Second

// EventLogService appends to and queries the operator journal.
type EventLogService struct {
	journal repository.JournalRepo
	log     *logger.Logger
}

func NewEventLogService(journal repository.JournalRepo, log *logger.Logger) *EventLogService {
	return &EventLogService{journal: journal, log: log.Named("journal")}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.ConsoleEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.List(ctx, from, to, typ)
}

// Record appends one entry. Failures are logged, never returned: the journal
// must not block dashboard updates.
func (s *EventLogService) Record(typ, description string, meta map[string]any) {
	if s == nil || s.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()
	err := s.journal.Append(ctx, models.ConsoleEvent{
		Type:        typ,
		Description: description,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Errorw("journal_append_failed", "type", typ, "err", err)
	}
}

// journalingSender records every outbound command and whether it went out.
type journalingSender struct {
	next    Sender
	journal *EventLogService
}

func (s journalingSender) Send(env models.Envelope) error {
	err := s.next.Send(env)
	meta := map[string]any{"page": env.Page}
	if env.Value != nil {
		meta["value"] = env.Value
	}
	if err != nil {
		meta["error"] = err.Error()
		s.journal.Record(models.EventDropped, "command dropped: "+env.Page, meta)
		return err
	}
	s.journal.Record(models.EventCommand, "command sent: "+env.Page, meta)
	return nil
}
