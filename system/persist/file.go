package persist

import (
	"bytes"
	"encoding/gob"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const defaultSettingsPath = "/var/lib/ws2812d/settings.gob"

// FileConfigHelper contains a list of configurations to be loaded, saved, and
// applied. The backing storage is a single gob-encoded file guarded by an
// advisory lock, so a stray second daemon cannot corrupt it.
type FileConfigHelper struct {
	mu            sync.Mutex
	alreadyClosed bool
	configs       map[string]Registry
	path          string
}

var _ ConfigRegistry = &FileConfigHelper{}

// NewFileConfigHelper returns a helper to persist config to the settings
// file. An empty path selects the default location.
func NewFileConfigHelper(path string) (ConfigRegistry, error) {
	if path == "" {
		path = defaultSettingsPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "persist: cannot create settings directory")
	}
	return &FileConfigHelper{
		configs: make(map[string]Registry),
		path:    path,
	}, nil
}

// Register will add the config to the list
func (h *FileConfigHelper) Register(config Registry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.configs[config.Name()] = config
}

// Load will retrieve and populate configs from the settings file
func (h *FileConfigHelper) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.OpenFile(h.path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return errors.Wrap(err, "persist: cannot open settings file")
	}
	defer file.Close()

	if err := unix.Flock(int(file.Fd()), unix.LOCK_SH); err != nil {
		return errors.Wrap(err, "persist: cannot lock settings file")
	}
	defer unix.Flock(int(file.Fd()), unix.LOCK_UN)

	info, err := file.Stat()
	if err != nil {
		return errors.Wrap(err, "persist: cannot stat settings file")
	}
	if info.Size() == 0 {
		// nothing to load
		return nil
	}

	values := make(map[string][]byte)
	if err := gob.NewDecoder(file).Decode(&values); err != nil {
		return errors.Wrap(err, "persist: cannot decode settings file")
	}

	for _, config := range h.configs {
		v, ok := values[config.Name()]
		if !ok {
			continue
		}
		log.Printf("persist: loading \"%s\" from the settings file\n", config.Name())
		config.Load(v)
	}

	return nil
}

// Save will persist all the configs to the settings file as binary values.
// The write goes through a temp file and a rename, so a crash mid-save
// leaves the previous settings intact.
func (h *FileConfigHelper) Save() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	values := make(map[string][]byte)
	for _, config := range h.configs {
		log.Printf("persist: saving \"%s\" to the settings file\n", config.Name())
		values[config.Name()] = config.Value()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(values); err != nil {
		return errors.Wrap(err, "persist: cannot encode settings")
	}

	file, err := os.OpenFile(h.path+".tmp", os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "persist: cannot open temp settings file")
	}
	defer file.Close()

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX); err != nil {
		return errors.Wrap(err, "persist: cannot lock temp settings file")
	}
	defer unix.Flock(int(file.Fd()), unix.LOCK_UN)

	if _, err := file.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "persist: cannot write settings")
	}
	if err := file.Sync(); err != nil {
		return errors.Wrap(err, "persist: cannot sync settings")
	}
	if err := os.Rename(h.path+".tmp", h.path); err != nil {
		return errors.Wrap(err, "persist: cannot replace settings file")
	}

	return nil
}

// Apply will apply each config accordingly. This is usually called after Load()
func (h *FileConfigHelper) Apply() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, config := range h.configs {
		log.Printf("persist: applying \"%s\" config\n", config.Name())
		err := config.Apply()
		if err != nil {
			log.Printf("persist: error applying \"%s\": %s\n", config.Name(), err)
			return err
		}
		time.Sleep(time.Millisecond * 25) // allow time for hardware configuration to propagate
	}

	return nil
}

// Close will release resources of each config
func (h *FileConfigHelper) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.alreadyClosed {
		return
	}
	h.alreadyClosed = true

	for _, config := range h.configs {
		log.Printf("persist: closing \"%s\"\n", config.Name())
		err := config.Close()
		if err != nil {
			log.Printf("persist: error closing \"%s\": %s\n", config.Name(), err)
		}
	}
}
