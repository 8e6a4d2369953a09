package credstore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the credential file lives unless configured
// otherwise.
const DefaultPath = "ais-credentials.yml"

// credentialKey is the fixed name the live-feed key is stored under.
const credentialKey = "aisstream_api_key"

// FileStore is a file-backed ais.CredentialStore.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func New(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

// Load returns the stored key. A missing file is not an error: it returns
// an empty string, the "never configured" state.
func (s *FileStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return "", err
	}
	return values[credentialKey], nil
}

// Store writes the key, creating the file and parent directory as needed.
// Other keys already in the file are preserved.
func (s *FileStore) Store(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		values = map[string]string{}
	}
	values[credentialKey] = key
	data, err := yaml.Marshal(values)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}
