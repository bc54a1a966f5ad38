package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/ledd/internal/events"
)

// registerSSERoutes registers the daemon event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of LED writes, lock changes, pattern starts and stops, and definition reloads",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"led-state":            events.LEDStateChangedEvent{},
		"led-lock":             events.LEDLockChangedEvent{},
		"pattern-started":      events.PatternStartedEvent{},
		"pattern-stopped":      events.PatternStoppedEvent{},
		"definitions-reloaded": events.DefinitionsReloadedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.LEDStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.LEDLockChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PatternStartedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PatternStoppedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.DefinitionsReloadedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

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
