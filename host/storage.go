package host

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sacnlogger/configsync/document"
	"github.com/sacnlogger/configsync/encoding/json"

	"github.com/xeipuuv/gojsonschema"
)

// Storage persists the document of the host.
type Storage interface {
	Load() (document.Document, error)
	Store(d document.Document) error
}

type memoryStorage struct {
	data document.Document
	lock sync.RWMutex
}

// NewMemoryStorage returns a storage that keeps the document in memory.
func NewMemoryStorage(d document.Document) Storage {
	return &memoryStorage{
		data: d.Clone(),
	}
}

func (s *memoryStorage) Load() (document.Document, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.data.Clone(), nil
}

func (s *memoryStorage) Store(d document.Document) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.data = d.Clone()

	return nil
}

//go:embed schema.json
var schemaJSON []byte

type jsonStorage struct {
	path   string
	schema *gojsonschema.Schema
	lock   sync.Mutex
}

// NewJSONStorage returns a storage that keeps the document in a JSON file at the
// given path. If the file doesn't exist, an empty document is written to it. The
// file is validated against the configuration schema on every load.
func NewJSONStorage(path string) (Storage, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to determine absolute path of '%s': %w", path, err)
	}

	s := &jsonStorage{
		path:   path,
		schema: schema,
	}

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		if err := s.Store(document.Document{Universes: []uint16{}}); err != nil {
			return nil, err
		}
	}

	if _, err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *jsonStorage) Load() (document.Document, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return document.Document{}, err
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return document.Document{}, fmt.Errorf("error parsing config file '%s': %w", s.path, err)
	}

	if !result.Valid() {
		details := []string{}
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}

		return document.Document{}, fmt.Errorf("invalid config file '%s': %s", s.path, strings.Join(details, "; "))
	}

	d := document.Document{}

	if err := json.Unmarshal(data, &d); err != nil {
		return document.Document{}, fmt.Errorf("error parsing config file '%s': %w", s.path, err)
	}

	return d, nil
}

func (s *jsonStorage) Store(d document.Document) error {
	if err := d.Validate(); err != nil {
		return err
	}

	d = d.Clone()
	if d.Universes == nil {
		d.Universes = []uint16{}
	}

	data, err := json.MarshalIndent(d)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0740); err != nil {
		return err
	}

	tmp := s.path + ".tmp"

	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("error saving config file '%s': %w", s.path, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("error saving config file '%s': %w", s.path, err)
	}

	return nil
}
