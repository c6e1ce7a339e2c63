// Package status serves a small read-only JSON view of the bot's live state.
package status

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"server-kidnap/internal/rooms"

	"github.com/gin-gonic/gin"
)

// Snapshot is the body of GET /status.
type Snapshot struct {
	Playback       map[string]string `json:"playback"` // guild -> room
	TransientRooms int               `json:"transient_rooms"`
	Punishments    int               `json:"punishments"`
	Abductions     []Abduction       `json:"abductions"`
}

// Abduction is one kidnap sequence in progress.
type Abduction struct {
	Job     string    `json:"job"`
	Started time.Time `json:"started"`
}

// Source provides the live state to report.
type Source interface {
	Snapshot() Snapshot
	Punishments(guildID string) []rooms.Punishment
}

// NewRouter builds the HTTP handler over src.
func NewRouter(src Source) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, src.Snapshot())
	})

	r.GET("/guilds/:guild/punishments", func(c *gin.Context) {
		list := src.Punishments(c.Param("guild"))
		if list == nil {
			list = []rooms.Punishment{}
		}
		c.JSON(http.StatusOK, gin.H{"punishments": list})
	})

	return r
}

// Run serves on addr until ctx is cancelled.
func Run(ctx context.Context, addr string, src Source) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(src),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("[INFO] [Status] Shutting down status server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] [Status] Shutdown: %v", err)
		}
	}()

	log.Printf("[INFO] [Status] Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
