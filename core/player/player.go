// Package player implements the client-side playback controller: the state
// machine that owns which song is loaded, whether it is playing, and the
// progress/volume/mute state, and that translates user intents into play
// recordings and transport directives.
package player

import (
	"context"
	"errors"
	"sync"

	"echofm/model"
)

// Status is the controller's position in its lifecycle.
type Status int

const (
	// StatusIdle means no song is selected.
	StatusIdle Status = iota
	// StatusLoaded means a song is selected but not rendering.
	StatusLoaded
	// StatusPlaying means the transport is rendering audio.
	StatusPlaying
	// StatusPaused means rendering is suspended at the current position.
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoaded:
		return "loaded"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

var (
	// ErrNoSongLoaded is returned when an intent needs a loaded song.
	ErrNoSongLoaded = errors.New("no song loaded")
	// ErrPlayPending is returned when a play intent arrives while a
	// previous play recording is still in flight.
	ErrPlayPending = errors.New("play request already in flight")
)

// Transport is the audio rendering element that decodes and plays bytes.
// The controller drives it with directives; it reports position through
// OnProgressTick and OnTrackEnded callbacks.
type Transport interface {
	Play()
	Pause()
	// Seek jumps to an absolute position in seconds.
	Seek(seconds float64)
	// SkipBy advances or rewinds by delta seconds; the transport clamps
	// the result to [0, duration].
	SkipBy(delta float64)
	// Duration returns the loaded media's length in seconds, 0 if unknown.
	Duration() float64
	SetVolume(v float64)
}

// PlayRecorder records a play server-side. Play will not start rendering
// until the recording succeeds.
type PlayRecorder interface {
	RecordPlay(ctx context.Context, songID int64) error
}

// State is a snapshot of the controller's playback state.
type State struct {
	Song     *model.Song
	Status   Status
	Progress float64 // percent, 0-100
	Volume   float64 // 0-1, independent of mute
	Muted    bool
}

// Controller is the playback state machine. All transitions happen on
// user-intent or transport-callback boundaries; the one suspending operation
// (Play) releases the lock during the network call and applies its result
// only if the same song load is still current.
type Controller struct {
	mu        sync.Mutex
	transport Transport
	recorder  PlayRecorder

	queue    []*model.Song
	song     *model.Song
	status   Status
	progress float64
	volume   float64
	muted    bool

	loadGen uint64
	pending bool
}

// New creates a controller in the Idle state with full volume.
func New(transport Transport, recorder PlayRecorder) *Controller {
	return &Controller{
		transport: transport,
		recorder:  recorder,
		status:    StatusIdle,
		volume:    1,
	}
}

// SetQueue replaces the ordered list of songs Advance walks through.
// The currently loaded song is untouched.
func (c *Controller) SetQueue(songs []*model.Song) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = songs
}

// SelectSong loads the given song, resetting progress and stopping any
// in-flight playback of the previous one. Selecting nil returns to Idle.
func (c *Controller) SelectSong(song *model.Song) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectLocked(song)
}

func (c *Controller) selectLocked(song *model.Song) {
	if c.status == StatusPlaying {
		c.transport.Pause()
	}
	c.loadGen++
	c.song = song
	c.progress = 0
	if song == nil {
		c.status = StatusIdle
	} else {
		c.status = StatusLoaded
	}
}

// Play records the play server-side and, only on success, starts rendering.
// On failure the state is unchanged and the transport is never started. A
// result arriving after the song changed is discarded silently.
func (c *Controller) Play(ctx context.Context) error {
	c.mu.Lock()
	if c.song == nil {
		c.mu.Unlock()
		return ErrNoSongLoaded
	}
	if c.status == StatusPlaying {
		c.mu.Unlock()
		return nil
	}
	if c.pending {
		c.mu.Unlock()
		return ErrPlayPending
	}
	songID := c.song.ID
	gen := c.loadGen
	c.pending = true
	c.mu.Unlock()

	err := c.recorder.RecordPlay(ctx, songID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		return err
	}
	if gen != c.loadGen {
		// The user selected another song while the recording was in
		// flight; the stale confirmation must not start the transport.
		return nil
	}
	c.status = StatusPlaying
	c.transport.Play()
	return nil
}

// Pause stops rendering. It only transitions from Playing; otherwise it is a
// no-op.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPlaying {
		return
	}
	c.status = StatusPaused
	c.transport.Pause()
}

// Seek jumps to a position given as a percentage of the song's duration.
// Out-of-range values clamp to [0,100]; with an unknown duration the seek is
// a no-op. Progress updates optimistically.
func (c *Controller) Seek(percent float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.song == nil {
		return
	}
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	duration := c.transport.Duration()
	if duration <= 0 {
		return
	}
	c.progress = percent
	c.transport.Seek(percent / 100 * duration)
}

// SkipBy advances or rewinds the transport by delta seconds. The playing
// state is unchanged; the transport clamps the resulting position.
func (c *Controller) SkipBy(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.song == nil {
		return
	}
	c.transport.SkipBy(delta)
}

// SetVolume sets the audible volume level in [0,1]. It does not unmute;
// volume and mute are independent toggles.
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	c.volume = v
	c.applyVolumeLocked()
}

// ToggleMute flips the mute flag and reapplies the transport volume.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = !c.muted
	c.applyVolumeLocked()
}

func (c *Controller) applyVolumeLocked() {
	if c.muted {
		c.transport.SetVolume(0)
		return
	}
	c.transport.SetVolume(c.volume)
}

// OnProgressTick recomputes progress from the transport's position report.
// An unknown duration yields 0, never NaN.
func (c *Controller) OnProgressTick(currentTime, duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if duration <= 0 {
		c.progress = 0
		return
	}
	percent := currentTime / duration * 100
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	c.progress = percent
}

// OnTrackEnded advances to the next song in the queue, exactly like an
// explicit skip-to-next intent.
func (c *Controller) OnTrackEnded() {
	c.Advance(1)
}

// Advance selects the song adjacent to the current one in the queue.
// Past either end of the queue it degrades to Idle; it never wraps around
// and never fails.
func (c *Controller) Advance(direction int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.song == nil {
		return
	}
	index := -1
	for i, song := range c.queue {
		if song.ID == c.song.ID {
			index = i
			break
		}
	}
	if index < 0 {
		c.selectLocked(nil)
		return
	}
	next := index + direction
	if next < 0 || next >= len(c.queue) {
		c.selectLocked(nil)
		return
	}
	c.selectLocked(c.queue[next])
}

// State returns a snapshot of the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Song:     c.song,
		Status:   c.status,
		Progress: c.progress,
		Volume:   c.volume,
		Muted:    c.muted,
	}
}
