package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"Agora/presence"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	presenceWriteTimeout = 10 * time.Second
	presenceReadTimeout  = 60 * time.Second
	presencePingInterval = 30 * time.Second
	presenceMaxMessage   = 512
)

var presenceUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS middleware already filtered browsers; presence carries no user data.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type presenceMessage struct {
	Channel string `json:"channel"`
	Online  int    `json:"online"`
}

// GetPresence returns the current number of distinct sessions in a channel.
func (server *Server) GetPresence(c *gin.Context) {
	channel := c.Param("channel")
	if !isChannelName(channel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": presenceMessage{Channel: channel, Online: presence.CountKeys(server.Presence.Snapshot(channel))},
	})
}

// PresenceSocket joins the channel for as long as the websocket stays open and
// pushes the online count on every change.
func (server *Server) PresenceSocket(c *gin.Context) {
	channel := c.Param("channel")
	if !isChannelName(channel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel"})
		return
	}

	conn, err := presenceUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("presence upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan int, 16)
	agg := presence.NewAggregator(server.Presence, channel,
		presence.WithClock(server.Clock),
		presence.WithClientMeta(c.Request.UserAgent()),
		presence.WithOnChange(func(n int) {
			select {
			case updates <- n:
			default:
				// writer is behind; it will catch up from Count()
			}
		}),
	)
	if err := agg.Start(ctx); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("presence session failed to start")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "presence unavailable"))
		return
	}
	defer agg.Stop()

	writerDone := make(chan struct{})
	go server.presenceWritePump(ctx, conn, channel, agg, updates, writerDone)

	conn.SetReadLimit(presenceMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(presenceReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(presenceReadTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("channel", channel).Msg("presence socket closed")
			}
			break
		}
	}

	cancel()
	<-writerDone
}

func (server *Server) presenceWritePump(ctx context.Context, conn *websocket.Conn, channel string, agg *presence.Aggregator, updates <-chan int, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(presencePingInterval)
	defer ticker.Stop()

	last := -1
	send := func(n int) bool {
		if n == last {
			return true
		}
		payload, err := json.Marshal(presenceMessage{Channel: channel, Online: n})
		if err != nil {
			return false
		}
		_ = conn.SetWriteDeadline(time.Now().Add(presenceWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return false
		}
		last = n
		return true
	}

	if !send(agg.Count()) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if !send(agg.Count()) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(presenceWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
