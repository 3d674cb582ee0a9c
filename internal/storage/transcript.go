package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	kindMetadata = "metadata"
	kindLine     = "line"
)

// Entry is one persisted transcript record.
type Entry struct {
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text,omitempty"`
}

// Info summarizes one stored transcript.
type Info struct {
	UID        string `json:"uid"`
	Endpoint   string `json:"endpoint"`
	LatestLine Entry  `json:"latest_line"`
	Lines      int    `json:"lines"`
	Timestamp  string `json:"timestamp"`
}

var (
	safeNamePattern = regexp.MustCompile(`^[A-Za-z0-9_\-\.]+$`)

	// ErrInvalidUID reports a transcript id that cannot name a file.
	ErrInvalidUID = errors.New("invalid transcript uid")
)

// CreateTranscript starts a new transcript file and returns its uid.
func CreateTranscript(baseDir string, endpoint string) (string, error) {
	if err := ensureDir(baseDir); err != nil {
		return "", err
	}
	now := time.Now()
	uid := now.Format("2006-01-02_15-04-05") + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	meta := []Entry{{Kind: kindMetadata, Timestamp: now.Format(time.RFC3339), Text: endpoint}}
	if err := writeEntries(filepath.Join(baseDir, uid+".json"), meta); err != nil {
		return "", err
	}
	return uid, nil
}

// AppendLine adds one line to an existing transcript.
func AppendLine(baseDir string, uid string, text string) error {
	path, err := transcriptPath(baseDir, uid)
	if err != nil {
		return err
	}
	entries, err := readEntries(path)
	if err != nil {
		return err
	}
	entries = append(entries, Entry{Kind: kindLine, Timestamp: time.Now().Format(time.RFC3339Nano), Text: text})
	return writeEntries(path, entries)
}

// GetTranscript returns the lines of a transcript without its metadata.
func GetTranscript(baseDir string, uid string) ([]Entry, error) {
	path, err := transcriptPath(baseDir, uid)
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(path)
	if err != nil {
		return nil, err
	}
	lines := []Entry{}
	for _, entry := range entries {
		if entry.Kind == kindMetadata {
			continue
		}
		lines = append(lines, entry)
	}
	return lines, nil
}

// DeleteTranscript removes a transcript file and reports whether it existed.
func DeleteTranscript(baseDir string, uid string) bool {
	path, err := transcriptPath(baseDir, uid)
	if err != nil {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	return os.Remove(path) == nil
}

// ListTranscripts returns every stored transcript, newest first.
func ListTranscripts(baseDir string) []Info {
	list := []Info{}
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return list
	}
	for _, dirEntry := range entries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), ".json") {
			continue
		}
		records, err := readEntries(filepath.Join(baseDir, dirEntry.Name()))
		if err != nil || len(records) == 0 {
			continue
		}
		info := Info{UID: strings.TrimSuffix(dirEntry.Name(), ".json")}
		for _, record := range records {
			switch record.Kind {
			case kindMetadata:
				info.Endpoint = record.Text
				info.Timestamp = record.Timestamp
			case kindLine:
				info.Lines++
				info.LatestLine = record
				info.Timestamp = record.Timestamp
			}
		}
		list = append(list, info)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UID > list[j].UID
	})
	return list
}

// Recorder persists every transcript line of one session.
type Recorder struct {
	mu      sync.Mutex
	baseDir string
	uid     string
	logger  *zap.Logger
}

// NewRecorder creates a fresh transcript under baseDir.
func NewRecorder(baseDir string, endpoint string, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	uid, err := CreateTranscript(baseDir, endpoint)
	if err != nil {
		return nil, err
	}
	return &Recorder{baseDir: baseDir, uid: uid, logger: logger}, nil
}

// UID returns the transcript id being written.
func (r *Recorder) UID() string {
	return r.uid
}

// AppendLine persists text; failures are logged and dropped.
func (r *Recorder) AppendLine(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := AppendLine(r.baseDir, r.uid, text); err != nil {
		r.logger.Warn("transcript persist failed",
			zap.String("transcript_uid", r.uid),
			zap.Error(err),
		)
	}
}

func ensureDir(baseDir string) error {
	if baseDir == "" {
		return errors.New("transcript base dir is empty")
	}
	return os.MkdirAll(baseDir, 0o755)
}

func transcriptPath(baseDir string, uid string) (string, error) {
	if baseDir == "" {
		return "", errors.New("transcript base dir is empty")
	}
	if !safeNamePattern.MatchString(uid) {
		return "", ErrInvalidUID
	}
	return filepath.Join(baseDir, uid+".json"), nil
}

func readEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func writeEntries(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
