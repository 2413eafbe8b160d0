package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/influencer-game/influencer-server-go/internal/game/rules"
)

// ActionStartMatch labels the first frame of a replay.
const ActionStartMatch rules.Action = "start_match"

const replayVersion = 1

// Frame is one accepted step of a match: the action and the view it produced.
type Frame struct {
	Action   rules.Action `json:"action"`
	Seat     int          `json:"seat"`
	View     *View        `json:"view"`
	Checksum string       `json:"checksum"`
	At       time.Time    `json:"at"`
	// Winner mirrors View.Winner, -1 while the match runs. gob drops a pointer
	// to zero, so seat 0 is restored from here on load.
	Winner int `json:"winner"`
}

func newFrame(action rules.Action, seat int, view *View, checksum string, at time.Time) *Frame {
	f := &Frame{Action: action, Seat: seat, View: view, Checksum: checksum, At: at, Winner: -1}
	if view.Winner != nil {
		f.Winner = *view.Winner
	}
	return f
}

// Replay is the sequence of frames of one match, with a playback cursor.
type Replay struct {
	MatchID      string
	Frames       []*Frame
	CurrentIndex int
	// SavedAt is set on replays read from disk.
	SavedAt time.Time
	mu      sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(matchID string) *Replay {
	return &Replay{
		MatchID: matchID,
		Frames:  make([]*Frame, 0),
	}
}

// Record appends a frame.
func (r *Replay) Record(frame *Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Frames = append(r.Frames, frame)
}

// Start rewinds the cursor.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the frame at the cursor and advances it, or nil at the end.
func (r *Replay) Next() *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Frames) {
		frame := r.Frames[r.CurrentIndex]
		r.CurrentIndex++
		return frame
	}
	return nil
}

// Previous moves the cursor back and returns that frame, or nil at the start.
func (r *Replay) Previous() *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Frames[r.CurrentIndex]
	}
	return nil
}

// Skip moves the cursor by count frames, clamped to the recording.
func (r *Replay) Skip(count int) *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	newIndex := r.CurrentIndex + count
	if newIndex >= len(r.Frames) {
		newIndex = len(r.Frames) - 1
	}
	if newIndex < 0 {
		newIndex = 0
	}

	r.CurrentIndex = newIndex
	if r.CurrentIndex < len(r.Frames) {
		return r.Frames[r.CurrentIndex]
	}
	return nil
}

// Size returns the number of frames.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Frames)
}

// FrameAt returns the frame at index or nil.
func (r *Replay) FrameAt(index int) *Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Frames) {
		return r.Frames[index]
	}
	return nil
}

// Last returns the newest frame or nil.
func (r *Replay) Last() *Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.Frames) == 0 {
		return nil
	}
	return r.Frames[len(r.Frames)-1]
}

// SaveToFile writes the replay to <directory>/<match id>.replay as gzipped gob,
// stamped with savedAt, and returns the file path.
func (r *Replay) SaveToFile(directory string, savedAt time.Time) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.MatchID))
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		MatchID:    r.MatchID,
		Timestamp:  savedAt,
		Version:    replayVersion,
		FrameCount: len(r.Frames),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, frame := range r.Frames {
		if err := encoder.Encode(frame); err != nil {
			return "", fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
	}
	if err := gzipWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to flush replay: %w", err)
	}
	return filename, nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, matchID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", matchID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.MatchID)
	replay.SavedAt = metadata.Timestamp
	for i := 0; i < metadata.FrameCount; i++ {
		var frame Frame
		if err := decoder.Decode(&frame); err != nil {
			return nil, fmt.Errorf("failed to decode frame %d: %w", i, err)
		}
		if frame.View != nil && frame.Winner >= 0 {
			winner := frame.Winner
			frame.View.Winner = &winner
		}
		replay.Frames = append(replay.Frames, &frame)
	}
	return replay, nil
}

type replayMetadata struct {
	MatchID    string
	Timestamp  time.Time
	Version    int
	FrameCount int
}
