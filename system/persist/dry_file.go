package persist

import "log"

type dryFileHelper struct {
	ConfigRegistry
}

var _ ConfigRegistry = &dryFileHelper{}

// NewDryFileConfigHelper returns a helper to persist config to the settings
// file but without actual IO to save
func NewDryFileConfigHelper(path string) (ConfigRegistry, error) {
	helper, err := NewFileConfigHelper(path)
	if err != nil {
		return nil, err
	}
	log.Println("[dry run] persist: initializing settings file without save IOs")
	return &dryFileHelper{
		ConfigRegistry: helper,
	}, nil
}

// Save will do nothing
func (d *dryFileHelper) Save() error {
	return nil
}
