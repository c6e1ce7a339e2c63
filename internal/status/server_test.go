package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"server-kidnap/internal/rooms"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snap        Snapshot
	punishments map[string][]rooms.Punishment
}

func (f *fakeSource) Snapshot() Snapshot { return f.snap }
func (f *fakeSource) Punishments(guildID string) []rooms.Punishment {
	return f.punishments[guildID]
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatus(t *testing.T) {
	req := require.New(t)
	src := &fakeSource{snap: Snapshot{
		Playback:       map[string]string{"g": "room"},
		TransientRooms: 2,
		Punishments:    1,
		Abductions: []Abduction{
			{Job: "kidnap:g:u", Started: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
	}}

	w := httptest.NewRecorder()
	NewRouter(src).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	req.Equal(http.StatusOK, w.Code)
	var got Snapshot
	req.NoError(json.Unmarshal(w.Body.Bytes(), &got))
	req.Equal(src.snap, got)
}

func TestGuildPunishments(t *testing.T) {
	req := require.New(t)
	since := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	src := &fakeSource{punishments: map[string][]rooms.Punishment{
		"g": {{GuildID: "g", UserID: "u", RoomID: "jail", ReturnRoomID: "lobby", Since: since}},
	}}
	router := NewRouter(src)

	// Given a guild with one punishment
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guilds/g/punishments", nil))
	req.Equal(http.StatusOK, w.Code)

	var body struct {
		Punishments []rooms.Punishment `json:"punishments"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	req.Len(body.Punishments, 1)
	req.Equal("jail", body.Punishments[0].RoomID)
	req.True(since.Equal(body.Punishments[0].Since))

	// When the guild has none, the list is empty rather than null
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guilds/other/punishments", nil))
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"punishments":[]}`, w.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	req := require.New(t)
	w := httptest.NewRecorder()
	NewRouter(&fakeSource{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	req.Equal(http.StatusNotFound, w.Code)
}
