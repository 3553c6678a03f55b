package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockConfig struct {
	bytes []byte
}

func (m *mockConfig) Name() string        { return "MockConfig" }
func (m *mockConfig) Value() []byte       { return m.bytes }
func (m *mockConfig) Load(v []byte) error { m.bytes = v; return nil }
func (m *mockConfig) Apply() error        { return nil }
func (m *mockConfig) Close() error        { return nil }

var _ Registry = &mockConfig{}

func TestPersistToFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "ws2812d-persist")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "settings.gob")

	expectedBytes := []byte{1, 2, 3, 4, 5, 6}
	h, err := NewFileConfigHelper(path)
	require.NoError(t, err)

	m := mockConfig{
		bytes: expectedBytes,
	}
	h.Register(&m)

	err = h.Save()
	require.NoError(t, err)

	hL, err := NewFileConfigHelper(path)
	require.NoError(t, err)

	m = mockConfig{}
	hL.Register(&m)

	err = hL.Load()
	require.NoError(t, err)

	require.EqualValues(t, expectedBytes, m.bytes)
}

func TestLoadEmptyFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "ws2812d-persist")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	h, err := NewFileConfigHelper(filepath.Join(dir, "settings.gob"))
	require.NoError(t, err)

	m := mockConfig{}
	h.Register(&m)
	require.NoError(t, h.Load())
	require.Empty(t, m.bytes)
}
