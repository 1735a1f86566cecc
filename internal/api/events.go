package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/hudview/hudview/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of component state changes, component output, button presses and camera statistics",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"component-state-changed": events.ComponentStateChangedEvent{},
		"component-output":        events.ComponentOutputEvent{},
		"button-pressed":          events.ButtonPressedEvent{},
		"frame-stats":             events.FrameStatsEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		bus := s.options.EventBus
		unsubscribers := []func(){
			events.SubscribeToChannel[events.ComponentStateChangedEvent](bus, eventCh),
			events.SubscribeToChannel[events.ComponentOutputEvent](bus, eventCh),
			events.SubscribeToChannel[events.ButtonPressedEvent](bus, eventCh),
			events.SubscribeToChannel[events.FrameStatsEvent](bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Replay current component states so a fresh client starts in sync
		if s.options.Components != nil {
			now := time.Now().Format(time.RFC3339)
			for _, st := range s.options.Components.Components() {
				if err := send.Data(events.ComponentStateChangedEvent{
					Component: st.Name,
					State:     st.State,
					Running:   st.State == "running",
					Timestamp: now,
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
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
