package api

import (
	"agentdash/app"
	"agentdash/domain/lookup"
)

// SSEEventBroadcaster turns batch lifecycle callbacks into hub events
type SSEEventBroadcaster struct {
	sseHub *SSEHub
}

// NewSSEEventBroadcaster creates a new SSE event broadcaster
func NewSSEEventBroadcaster(sseHub *SSEHub) *SSEEventBroadcaster {
	return &SSEEventBroadcaster{sseHub: sseHub}
}

// Progress returns a progress callback for one batch run. An empty
// sessionID means nobody is listening and yields nil.
func (b *SSEEventBroadcaster) Progress(sessionID string) app.ProgressFunc {
	if sessionID == "" || b == nil {
		return nil
	}
	return func(done, total int) {
		b.sseHub.Broadcast(ProgressEvent{
			SessionID: sessionID,
			EventType: EventProgress,
			Done:      done,
			Total:     total,
			Progress:  fraction(done, total),
		})
	}
}

// Finished sends the terminal event of a batch run
func (b *SSEEventBroadcaster) Finished(sessionID string, batch *lookup.Batch, err error) {
	if sessionID == "" || b == nil {
		return
	}
	event := ProgressEvent{SessionID: sessionID, EventType: EventDone, Progress: 1}
	switch {
	case err != nil:
		event.EventType = EventError
		event.Message = err.Error()
		event.Progress = 0
	case batch != nil:
		event.BatchID = batch.ID.String()
		event.Done = len(batch.Rows)
		event.Total = len(batch.Rows)
	}
	b.sseHub.Broadcast(event)
}

func fraction(done, total int) float64 {
	if total <= 0 {
		return 1
	}
	return float64(done) / float64(total)
}
