package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/hudview/hudview/internal/api/models"
	"github.com/hudview/hudview/internal/events"
	"github.com/hudview/hudview/internal/logging"
)

// LogListInput limits the returned history.
type LogListInput struct {
	Since uint64 `query:"since" example:"42" doc:"Only entries with a higher sequence number"`
	Limit int    `query:"limit" minimum:"0" example:"100" doc:"Return only the newest entries (0 = all)"`
	Level string `query:"level" example:"warn" doc:"Drop entries below this level"`
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Log entries held in the in-memory ring buffer",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *LogListInput) (*models.LogListResponse, error) {
		var entries []logging.LogEntry
		if buffer := logging.GetBuffer(); buffer != nil {
			entries = filterLogs(buffer.ReadSince(input.Since), input.Level, input.Limit)
		}
		if entries == nil {
			entries = []logging.LogEntry{}
		}
		return &models.LogListResponse{
			Body: models.LogListData{Entries: entries, Count: len(entries)},
		}, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Sends historical logs first, then streams new logs.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Subscribe before replaying so nothing logged in between is lost
		eventCh := make(chan any, 100)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.options.EventBus, eventCh)
		defer unsubscribe()

		var replayed uint64
		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.ReadAll() {
				replayed = entry.Seq
				if err := send.Data(events.LogEntryEvent{
					Seq:        entry.Seq,
					Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
					Level:      entry.Level,
					Module:     entry.Module,
					Message:    entry.Message,
					Attributes: entry.Attributes,
				}); err != nil {
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if e, ok := event.(events.LogEntryEvent); ok && e.Seq != 0 && e.Seq <= replayed {
					continue
				}
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}

// filterLogs keeps entries at or above level and trims to the newest limit.
func filterLogs(entries []logging.LogEntry, level string, limit int) []logging.LogEntry {
	if floor, ok := levelRank[level]; ok {
		kept := entries[:0:0]
		for _, e := range entries {
			if levelRank[e.Level] >= floor {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries
}
