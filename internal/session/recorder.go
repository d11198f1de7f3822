package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/recrsn/nanocoder/internal/llm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNotStarted is returned by Checkpoint before Begin
	ErrNotStarted = errors.New("session not started")

	// ErrSequence is returned for a sequence number that does not advance
	ErrSequence = errors.New("checkpoint sequence must increase")

	// ErrSnapshotExists is returned when a snapshot file is already present
	ErrSnapshotExists = errors.New("snapshot already exists")
)

// Snapshot is the on-disk form of one checkpoint
type Snapshot struct {
	SessionID string        `json:"session_id"`
	Sequence  int           `json:"sequence"`
	CreatedAt time.Time     `json:"created_at"`
	Messages  []llm.Message `json:"messages"`
}

// FileRecorder writes one JSON snapshot per checkpoint into a per-session
// directory under root. Snapshots are write-once.
type FileRecorder struct {
	mu           sync.Mutex
	root         string
	id           string
	dir          string
	lastSequence int
	now          func() time.Time
}

// NewFileRecorder creates a recorder storing sessions under root
func NewFileRecorder(root string) *FileRecorder {
	return &FileRecorder{root: root, now: time.Now}
}

// Begin allocates a UUIDv7 session id, which orders by creation time and
// carries 74 random bits, and creates the session directory
func (r *FileRecorder) Begin() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}

	dir := filepath.Join(r.root, id.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating session directory: %w", err)
	}

	r.id = id.String()
	r.dir = dir
	r.lastSequence = 0
	return r.id, nil
}

// ID returns the current session id
func (r *FileRecorder) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// Dir returns the current session directory
func (r *FileRecorder) Dir() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dir
}

// SnapshotName is the file name used for a sequence number
func SnapshotName(sequence int) string {
	return fmt.Sprintf("%06d.json", sequence)
}

// Checkpoint persists the transcript. The snapshot is written to a temporary
// file and renamed into place so readers never see a partial file.
func (r *FileRecorder) Checkpoint(transcript []llm.Message, sequence int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dir == "" {
		return ErrNotStarted
	}
	if sequence <= r.lastSequence {
		return fmt.Errorf("%w: got %d after %d", ErrSequence, sequence, r.lastSequence)
	}

	target := filepath.Join(r.dir, SnapshotName(sequence))
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("%w: %s", ErrSnapshotExists, target)
	}

	data, err := json.MarshalIndent(Snapshot{
		SessionID: r.id,
		Sequence:  sequence,
		CreatedAt: r.now().UTC(),
		Messages:  transcript,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	if err := writeAtomic(r.dir, target, data); err != nil {
		return err
	}

	r.lastSequence = sequence
	return nil
}

func writeAtomic(dir, target string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot file
func Load(path string) (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("reading snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return snap, nil
}
