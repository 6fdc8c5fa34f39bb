package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"repair-backend/internal/logger"
	"repair-backend/internal/metrics"
	"repair-backend/internal/models"
)

const writeTimeout = 5 * time.Second

// SummarySource computes the current alarm summary. Implemented by services.AlarmService.
type SummarySource interface {
	Summary(ctx context.Context) (*models.AlarmSummary, error)
}

// AlarmFeed pushes the alarm summary to websocket clients on a fixed interval
// and right after a case changes status.
type AlarmFeed struct {
	source   SummarySource
	interval time.Duration
	upgrader websocket.Upgrader

	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex

	last    *models.AlarmSummary
	lastMux sync.RWMutex

	trigger chan struct{}
}

func NewAlarmFeed(source SummarySource, interval time.Duration) *AlarmFeed {
	return &AlarmFeed{
		source:   source,
		interval: interval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
		trigger: make(chan struct{}, 1),
	}
}

// Run publishes summaries until ctx is cancelled.
func (f *AlarmFeed) Run(ctx context.Context) {
	ctx = logger.WithName(ctx, "alarm-feed")
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.publish(ctx)
	for {
		select {
		case <-ctx.Done():
			f.closeAll()
			return
		case <-ticker.C:
			f.publish(ctx)
		case <-f.trigger:
			f.publish(ctx)
		}
	}
}

// StatusChanged schedules an immediate publish. Bursts of changes collapse
// into a single recomputation.
func (f *AlarmFeed) StatusChanged(_ context.Context, _ *models.StatusChange) {
	select {
	case f.trigger <- struct{}{}:
	default:
	}
}

// Last returns the most recently published summary, or nil before the first one.
func (f *AlarmFeed) Last() *models.AlarmSummary {
	f.lastMux.RLock()
	defer f.lastMux.RUnlock()
	return f.last
}

// ServeHTTP upgrades the request and registers the client. The latest
// summary is sent straight away.
func (f *AlarmFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnKV(r.Context(), "WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	f.clientsMux.Lock()
	f.clients[conn] = true
	metrics.FeedClients.Set(float64(len(f.clients)))
	if last := f.Last(); last != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_ = conn.WriteJSON(last)
	}
	f.clientsMux.Unlock()

	// clients only listen; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			f.remove(conn)
			return
		}
	}
}

func (f *AlarmFeed) publish(ctx context.Context) {
	summary, err := f.source.Summary(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Alarm summary failed", "error", err)
		return
	}

	f.lastMux.Lock()
	f.last = summary
	f.lastMux.Unlock()

	f.clientsMux.Lock()
	defer f.clientsMux.Unlock()
	for client := range f.clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := client.WriteJSON(summary); err != nil {
			client.Close()
			delete(f.clients, client)
		}
	}
	metrics.FeedClients.Set(float64(len(f.clients)))
}

func (f *AlarmFeed) remove(conn *websocket.Conn) {
	f.clientsMux.Lock()
	defer f.clientsMux.Unlock()
	delete(f.clients, conn)
	metrics.FeedClients.Set(float64(len(f.clients)))
}

func (f *AlarmFeed) closeAll() {
	f.clientsMux.Lock()
	defer f.clientsMux.Unlock()
	for client := range f.clients {
		_ = client.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		client.Close()
		delete(f.clients, client)
	}
	metrics.FeedClients.Set(0)
}
