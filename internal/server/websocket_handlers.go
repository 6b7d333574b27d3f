package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/plat-tools/platmaster/internal/pdf"
	"github.com/plat-tools/platmaster/internal/pipeline"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS origin enforcement happens on the REST surface; the socket
		// accepts any origin so browser dashboards can stream progress.
		return true
	},
}

// ExtractWSRequest is an extraction request sent over the socket. PDF carries
// the document bytes (base64 in the JSON encoding).
type ExtractWSRequest struct {
	PDF      []byte `json:"pdf"`
	Filename string `json:"filename,omitempty"`
	Pages    string `json:"pages,omitempty"`
}

// ExtractWSResponse is a progress or completion message.
type ExtractWSResponse struct {
	Type      string                   `json:"type"` // "progress", "completed", "error"
	Current   int                      `json:"current,omitempty"`
	Total     int                      `json:"total,omitempty"`
	Result    *pipeline.DocumentResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
	RequestID string                   `json:"request_id,omitempty"`
}

// extractWebSocketHandler streams per-page progress while a document is
// processed.
func (s *Server) extractWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection to websocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("websocket connection established", "remote_addr", r.RemoteAddr)

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go keepAlive(conn)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket error", "error", err)
			}
			break
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleExtractWSMessage(r.Context(), conn, data)
		}
	}
}

func keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
			return
		}
	}
}

func (s *Server) handleExtractWSMessage(ctx context.Context, conn *websocket.Conn, data []byte) {
	var req ExtractWSRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWSResponse(conn, ExtractWSResponse{Type: "error", Error: fmt.Sprintf("failed to parse request: %v", err)})
		return
	}
	if len(req.PDF) == 0 {
		s.sendWSResponse(conn, ExtractWSResponse{Type: "error", Error: "no PDF data provided"})
		return
	}

	requestID := uuid.NewString()

	selection, err := pdf.ParsePageRange(req.Pages)
	if err != nil {
		s.sendWSResponse(conn, ExtractWSResponse{
			Type: "error", Error: fmt.Sprintf("invalid pages: %v", err), RequestID: requestID,
		})
		return
	}

	tmpPath, cleanup, err := spoolUpload(bytes.NewReader(req.PDF), req.Filename)
	if err != nil {
		s.sendWSResponse(conn, ExtractWSResponse{
			Type: "error", Error: fmt.Sprintf("failed to store upload: %v", err), RequestID: requestID,
		})
		return
	}
	defer cleanup()

	processCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	progress := &wsProgress{server: s, conn: conn, requestID: requestID}
	result, err := s.processor.ProcessDocumentWithProgress(processCtx, tmpPath, selection, progress)
	if err != nil {
		extractionsTotal.WithLabelValues("error").Inc()
		s.sendWSResponse(conn, ExtractWSResponse{
			Type: "error", Error: fmt.Sprintf("extraction failed: %v", err), RequestID: requestID,
		})
		return
	}

	extractionsTotal.WithLabelValues("success").Inc()
	pagesProcessed.Observe(float64(len(result.Pages)))
	pointsExtracted.Observe(float64(len(result.Record.SurveyPoints)))

	s.sendWSResponse(conn, ExtractWSResponse{Type: "completed", Result: result, RequestID: requestID})
}

func (s *Server) sendWSResponse(conn *websocket.Conn, resp ExtractWSResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to marshal websocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("failed to send websocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// wsProgress streams pipeline progress over one websocket connection. Gorilla
// connections allow a single concurrent writer, so sends are serialized.
type wsProgress struct {
	server    *Server
	conn      *websocket.Conn
	requestID string
	mutex     sync.Mutex
	total     int
}

func (p *wsProgress) OnStart(total int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.total = total
	p.server.sendWSResponse(p.conn, ExtractWSResponse{
		Type: "progress", Current: 0, Total: total, RequestID: p.requestID,
	})
}

func (p *wsProgress) OnProgress(current, total int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.server.sendWSResponse(p.conn, ExtractWSResponse{
		Type: "progress", Current: current, Total: total, RequestID: p.requestID,
	})
}

func (p *wsProgress) OnComplete() {}

func (p *wsProgress) OnError(current int, err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.server.sendWSResponse(p.conn, ExtractWSResponse{
		Type: "progress", Current: current, Total: p.total,
		Error: err.Error(), RequestID: p.requestID,
	})
}
