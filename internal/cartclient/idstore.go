package cartclient

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDStore は cartId の保存先。空文字は未保存。
type IDStore interface {
	Load() (string, error)
	Save(id string) error
}

type MemoryIDStore struct {
	mu sync.Mutex
	id string
}

func NewMemoryIDStore(id string) *MemoryIDStore {
	return &MemoryIDStore{id: id}
}

func (s *MemoryIDStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, nil
}

func (s *MemoryIDStore) Save(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

// FileIDStore は1行のファイルに cartId を置く
type FileIDStore struct {
	path string
}

func NewFileIDStore(path string) *FileIDStore {
	return &FileIDStore{path: path}
}

// DefaultIDPath はユーザー設定ディレクトリ配下の保存先
func DefaultIDPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "storefront", "cart_id"), nil
}

func (s *FileIDStore) Load() (string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read cart id: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *FileIDStore) Save(id string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create cart id dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(id+"\n"), 0o600); err != nil {
		return fmt.Errorf("write cart id: %w", err)
	}
	return nil
}

// loadOrCreateID は保存済みのIDを返す。無ければ採番して保存する。
func loadOrCreateID(s IDStore) (string, error) {
	id, err := s.Load()
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return newID(s)
}

func newID(s IDStore) (string, error) {
	id := uuid.NewString()
	if err := s.Save(id); err != nil {
		return "", err
	}
	return id, nil
}
