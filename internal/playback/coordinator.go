// Package playback plays one clip at a time per guild into a voice room.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"
)

const (
	DefaultJoinTimeout  = 30 * time.Second
	DefaultFrameTimeout = 5 * time.Second
)

var (
	ErrPlaybackUnavailable = errors.New("no clip available")
	ErrTransportTimeout    = errors.New("voice connection timed out")
	ErrTransportError      = errors.New("voice transport error")
)

// Connection is an established voice connection bound to one room.
type Connection interface {
	ChannelID() string
	Frames() chan<- []byte
	Speaking(bool) error
	Disconnect() error
}

// Transport opens voice connections. Join must honor ctx cancellation.
type Transport interface {
	Join(ctx context.Context, guildID, channelID string) (Connection, error)
}

// Occupancy reports how many members are in a room, not counting the bot.
type Occupancy interface {
	Occupants(guildID, roomID string) int
}

// Coordinator owns the single playback slot of each guild. A new request
// replaces whatever is playing; nothing is queued.
type Coordinator struct {
	transport   Transport
	clips       ClipSource
	occupancy   Occupancy
	decoder     Decoder
	newEncoder   func() (Encoder, error)
	joinTimeout  time.Duration
	frameTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

type Option func(*Coordinator)

func WithJoinTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.joinTimeout = d
		}
	}
}

// WithFrameTimeout bounds how long a single frame may wait for the connection.
func WithFrameTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.frameTimeout = d
		}
	}
}

func WithDecoder(d Decoder) Option {
	return func(c *Coordinator) { c.decoder = d }
}

func WithEncoder(newEncoder func() (Encoder, error)) Option {
	return func(c *Coordinator) { c.newEncoder = newEncoder }
}

func NewCoordinator(transport Transport, clips ClipSource, occupancy Occupancy, opts ...Option) *Coordinator {
	c := &Coordinator{
		transport:    transport,
		clips:        clips,
		occupancy:    occupancy,
		decoder:      FFmpegDecoder{},
		newEncoder:   NewOpusEncoder,
		joinTimeout:  DefaultJoinTimeout,
		frameTimeout: DefaultFrameTimeout,
		sessions:     make(map[string]*session),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type session struct {
	guildID string
	roomID  string
	clip    string

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	conn Connection

	doneOnce       sync.Once
	done           chan struct{}
	exited         chan struct{}
	disconnectOnce sync.Once
}

func (s *session) resolve() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *session) connection() Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *session) disconnect() {
	s.cancel()
	conn := s.connection()
	if conn == nil {
		return
	}
	s.disconnectOnce.Do(func() {
		if err := conn.Disconnect(); err != nil {
			log.Printf("[WARN] [Player] Disconnect from %s failed: %v", s.roomID, err)
		}
		log.Printf("[Player] Left voice room %s on guild %s", s.roomID, s.guildID)
	})
}

// Play starts a random clip in roomID and returns a signal that closes when
// playback is over for any reason: natural end, error, timeout or replacement.
func (c *Coordinator) Play(ctx context.Context, guildID, roomID string) <-chan struct{} {
	clip, err := c.clips.Random()
	if err != nil {
		log.Printf("[WARN] [Player] Nothing to play: %v", err)
		done := make(chan struct{})
		close(done)
		return done
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		guildID: guildID,
		roomID:  roomID,
		clip:    clip,
		ctx:     sctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}

	c.mu.Lock()
	prev := c.sessions[guildID]
	c.sessions[guildID] = s
	c.mu.Unlock()

	if prev != nil {
		log.Printf("[Player] Replacing playback in room %s with room %s", prev.roomID, roomID)
		prev.disconnect()
		<-prev.exited
	}

	go c.run(s)
	return s.done
}

func (c *Coordinator) run(s *session) {
	defer close(s.exited)
	defer s.resolve()

	joinCtx, cancel := context.WithTimeout(s.ctx, c.joinTimeout)
	conn, err := c.transport.Join(joinCtx, s.guildID, s.roomID)
	cancel()
	if err != nil {
		switch {
		case s.ctx.Err() != nil:
			log.Printf("[Player] Join of room %s abandoned: %v", s.roomID, s.ctx.Err())
		case errors.Is(err, context.DeadlineExceeded):
			log.Printf("[ERR] [Player] %v after %s: room %s", ErrTransportTimeout, c.joinTimeout, s.roomID)
		default:
			log.Printf("[ERR] [Player] %v: %v", ErrTransportError, err)
		}
		c.forget(s)
		return
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	// replaced while joining
	if s.ctx.Err() != nil {
		s.disconnect()
		return
	}

	log.Printf("[Player] Joined voice room %s on guild %s, playing %s", s.roomID, s.guildID, filepath.Base(s.clip))
	if err := c.stream(s, conn); err != nil {
		log.Printf("[ERR] [Player] Playback in room %s failed: %v", s.roomID, err)
		// the connection is no use after a transport failure
		c.release(s)
		return
	}
	log.Printf("[Player] Playback finished in room %s", s.roomID)

	if s.ctx.Err() == nil && c.occupancy.Occupants(s.guildID, s.roomID) == 0 {
		c.release(s)
	}
}

func (c *Coordinator) stream(s *session, conn Connection) error {
	pcm, err := c.decoder.Decode(s.ctx, s.clip)
	if err != nil {
		return fmt.Errorf("decode %s: %w", s.clip, err)
	}
	defer pcm.Close()

	enc, err := c.newEncoder()
	if err != nil {
		return err
	}

	if err := conn.Speaking(true); err != nil {
		log.Printf("[WARN] [Player] Speaking(true) failed: %v", err)
	}
	defer func() {
		if err := conn.Speaking(false); err != nil {
			log.Printf("[DEBUG] [Player] Speaking(false) failed: %v", err)
		}
	}()

	frames, err := streamFrames(pcm, enc, conn.Frames(), s.ctx.Done(), c.frameTimeout)
	log.Printf("[DEBUG] [Player] Sent %d frame(s) to room %s", frames, s.roomID)
	return err
}

// ConsiderDisconnect tears down the guild's session if it is bound to roomID
// and nobody but the bot is left in the room.
func (c *Coordinator) ConsiderDisconnect(guildID, roomID string) bool {
	if c.occupancy.Occupants(guildID, roomID) > 0 {
		return false
	}
	return c.Release(guildID, roomID)
}

// Release tears down the guild's session if it is bound to roomID.
func (c *Coordinator) Release(guildID, roomID string) bool {
	c.mu.Lock()
	s, ok := c.sessions[guildID]
	c.mu.Unlock()
	if !ok || s.roomID != roomID {
		return false
	}
	c.release(s)
	return true
}

// Stop tears down every session.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	all := make([]*session, 0, len(c.sessions))
	for _, s := range c.sessions {
		all = append(all, s)
	}
	c.mu.Unlock()

	for _, s := range all {
		c.release(s)
		<-s.exited
	}
}

// Active returns guild -> room for every guild with a playback slot in use.
func (c *Coordinator) Active() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]string, len(c.sessions))
	for guildID, s := range c.sessions {
		out[guildID] = s.roomID
	}
	return out
}

func (c *Coordinator) release(s *session) {
	c.forget(s)
	s.disconnect()
	s.resolve()
}

// forget clears the guild slot only if s still owns it.
func (c *Coordinator) forget(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessions[s.guildID] == s {
		delete(c.sessions, s.guildID)
	}
}
