package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"qnotes/internal/domain"
	"qnotes/internal/logging"
)

// ErrNoPath is returned by Save when the notebook has no destination yet.
// Hosts prompt the user for one and call SetPath.
var ErrNoPath = errors.New("notebook has no save path")

// Detector resolves a connection URI to a backend and its sample query.
// *dbclient.Registry satisfies it.
type Detector interface {
	Detect(uri string) domain.BackendKind
	DefaultQuery(kind domain.BackendKind) string
}

// notebookJSON is the on-disk layout. Query ids are written as string keys.
type notebookJSON struct {
	ConnectionURI string            `json:"connection_uri"`
	DBType        *string           `json:"db_type"`
	Queries       map[string]string `json:"queries"`
}

// Serialize encodes the persisted part of a session. Execution state is
// never written.
func Serialize(doc domain.Document) ([]byte, error) {
	out := notebookJSON{
		ConnectionURI: doc.ConnectionURI,
		Queries:       make(map[string]string, len(doc.Queries)),
	}
	if doc.Backend.Known() {
		name := string(doc.Backend)
		out.DBType = &name
	}
	for id, text := range doc.Queries {
		out.Queries[strconv.Itoa(id)] = text
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode notebook: %w", err)
	}
	return append(data, '\n'), nil
}

// Deserialize decodes a notebook document. It returns false when data is not
// a JSON object of the expected shape, leaving the caller to fall back to
// defaults. db_type is always recomputed from the URI; a missing queries map
// becomes one query holding the backend's sample. Keys that are not positive
// integers are skipped.
func Deserialize(data []byte, detect Detector) (*domain.Document, bool) {
	var raw *notebookJSON
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, false
	}

	backend := detect.Detect(raw.ConnectionURI)
	doc := &domain.Document{
		ConnectionURI: raw.ConnectionURI,
		Backend:       backend,
		Queries:       make(map[int]string, len(raw.Queries)),
	}
	if raw.Queries == nil {
		doc.Queries[1] = detect.DefaultQuery(backend)
		return doc, true
	}
	for key, text := range raw.Queries {
		id, err := strconv.Atoi(key)
		if err != nil || id < 1 {
			continue
		}
		doc.Queries[id] = text
	}
	return doc, true
}

// ─────────────────────────────────────────────────────────────
// NotebookFile — a notebook document bound to a path on disk
// ─────────────────────────────────────────────────────────────

// NotebookFile loads and saves a notebook at Path. The zero Path means the
// session has not been saved yet.
type NotebookFile struct {
	path   string
	detect Detector
	log    *logrus.Entry
}

func NewNotebookFile(path string, detect Detector, logger *logrus.Logger) *NotebookFile {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NotebookFile{
		path:   path,
		detect: detect,
		log:    logger.WithField("component", "storage"),
	}
}

// Path returns the current save destination, or "" if none is set.
func (f *NotebookFile) Path() string {
	return f.path
}

// SetPath fixes the destination used by later saves.
func (f *NotebookFile) SetPath(path string) {
	f.path = path
}

// Load reads and decodes the file. A missing, unreadable or unparsable file
// yields false; the cause is logged and otherwise dropped so that a usable
// session can always be opened.
func (f *NotebookFile) Load() (*domain.Document, bool) {
	if f.path == "" {
		return nil, false
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.log.WithError(err).Warnf("cannot read notebook %s", f.path)
		}
		return nil, false
	}
	doc, ok := Deserialize(data, f.detect)
	if !ok {
		f.log.Warnf("notebook %s is not valid, using defaults", f.path)
		return nil, false
	}
	return doc, true
}

// Save writes doc to Path, replacing the file atomically. It returns the
// bytes written so callers can recognise their own writes.
func (f *NotebookFile) Save(doc domain.Document) ([]byte, error) {
	if f.path == "" {
		return nil, ErrNoPath
	}
	data, err := Serialize(doc)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(f.path, data); err != nil {
		return nil, fmt.Errorf("save notebook: %w", err)
	}
	f.log.Debugf("saved %d queries to %s", len(doc.Queries), f.path)
	return data, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
