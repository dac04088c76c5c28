package api

import (
	"log"
	"net/http"
	"time"

	"canvas_ai_server/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ViewerSource registers websocket viewers. *realtime.Hub implements it.
type ViewerSource interface {
	Listen(name string) (*realtime.Viewer, error)
}

const (
	viewerWSWriteWait = 10 * time.Second
	viewerWSPongWait  = 60 * time.Second
	viewerWSPingEvery = (viewerWSPongWait * 9) / 10
)

var viewerWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// GET /ws
// Streams every broadcast envelope of the build channel to one viewer.
func (h *APIHandler) ViewerWS(c *gin.Context) {
	viewer, err := h.viewers.Listen(h.channel)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Broadcast channel unavailable"})
		return
	}
	defer viewer.Close()

	conn, err := viewerWSUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("viewer ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("viewer %s connected", viewer.ID())

	if err := conn.SetReadDeadline(time.Now().Add(viewerWSPongWait)); err != nil {
		log.Printf("viewer ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(viewerWSPongWait))
	})

	// Viewers never send anything; reading only services pongs and close frames.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(viewerWSPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-readerDone:
			log.Printf("viewer %s disconnected", viewer.ID())
			return
		case <-viewer.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "viewer dropped"),
				time.Now().Add(viewerWSWriteWait))
			return
		case env := <-viewer.Events():
			if err := conn.SetWriteDeadline(time.Now().Add(viewerWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(viewerWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
