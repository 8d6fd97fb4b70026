package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sacnlogger/configsync/config"
	"github.com/sacnlogger/configsync/encoding/json"
)

type jsonStore struct {
	path string

	data map[string]*config.Config
	lock sync.RWMutex
}

// NewJSON will read the JSON config file from the given path. After successfully reading it in, it will be written
// back to the path. The returned error will be nil if everything went fine. If the path doesn't exist, a default JSON
// config file will be written to that path. The returned Store can be used to retrieve or write the config.
func NewJSON(path string) (Store, error) {
	c := &jsonStore{
		data: make(map[string]*config.Config),
	}

	if len(path) == 0 {
		path = "./config.json"
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to determine absolute path of '%s': %w", path, err)
	}

	c.path = path

	c.data["base"] = config.New()

	if err := c.load(c.data["base"]); err != nil {
		return nil, fmt.Errorf("failed to read JSON from '%s': %w", path, err)
	}

	if err := c.store(c.data["base"]); err != nil {
		return nil, fmt.Errorf("failed to write JSON to '%s': %w", path, err)
	}

	return c, nil
}

func (c *jsonStore) Get() *config.Config {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.data["base"].Clone()
}

func (c *jsonStore) Set(d *config.Config) error {
	if d.HasErrors() {
		return fmt.Errorf("configuration data has errors after validation")
	}

	data := d.Clone()
	data.UpdatedAt = time.Now()

	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.store(data); err != nil {
		return fmt.Errorf("failed to write JSON to '%s': %w", c.path, err)
	}

	c.data["base"] = data

	return nil
}

func (c *jsonStore) GetActive() *config.Config {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if x, ok := c.data["merged"]; ok {
		return x.Clone()
	}

	if x, ok := c.data["base"]; ok {
		return x.Clone()
	}

	return nil
}

func (c *jsonStore) SetActive(d *config.Config) error {
	d.Validate(true)

	if d.HasErrors() {
		return fmt.Errorf("configuration data has errors after validation")
	}

	data := d.Clone()

	c.lock.Lock()
	defer c.lock.Unlock()

	c.data["merged"] = data

	return nil
}

func (c *jsonStore) load(cfg *config.Config) error {
	jsondata, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.CreatedAt = time.Now()
			return nil
		}

		return err
	}

	if len(jsondata) == 0 {
		return nil
	}

	version := DataVersion{}

	if err := json.Unmarshal(jsondata, &version); err != nil {
		return err
	}

	if version.Version != cfg.Version {
		return fmt.Errorf("unsupported configuration version %d", version.Version)
	}

	if err := json.Unmarshal(jsondata, &cfg.Data); err != nil {
		return err
	}

	cfg.LoadedAt = time.Now()
	cfg.UpdatedAt = cfg.CreatedAt

	return nil
}

func (c *jsonStore) store(data *config.Config) error {
	jsondata, err := json.MarshalIndent(data)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)

	if err := os.MkdirAll(dir, 0o740); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(jsondata); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), c.path)
}
