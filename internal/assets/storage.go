package assets

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ============================================================
// Map Storage
// ============================================================

var (
	ErrInvalidName = errors.New("invalid map name")
	ErrNotFound    = errors.New("map not found")
)

// MapFile: SVG документ, лежащий в каталоге карт.
type MapFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// MapStore хранит SVG карты на диске и отдаёт их как same-origin хост документов.
type MapStore struct {
	root string
}

func NewMapStore(root string) *MapStore {
	return &MapStore{root: root}
}

func (s *MapStore) Root() string {
	return s.root
}

func (s *MapStore) EnsureDir() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("mkdir maps dir: %w", err)
	}
	return nil
}

// Resolve превращает имя из URL в путь внутри root. Выход за пределы root и
// не-SVG файлы отклоняются.
func (s *MapStore) Resolve(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	if name == "" || strings.Contains(name, "\\") {
		return "", ErrInvalidName
	}
	clean := path.Clean(name)
	if clean != name || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidName
	}
	if !strings.EqualFold(path.Ext(clean), ".svg") {
		return "", ErrInvalidName
	}

	full := filepath.Join(s.root, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("stat map: %w", err)
	}
	if info.IsDir() {
		return "", ErrNotFound
	}
	return full, nil
}

// List возвращает все .svg файлы каталога (рекурсивно), отсортированные по имени.
func (s *MapStore) List() ([]MapFile, error) {
	files := []MapFile{}
	err := filepath.WalkDir(s.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".svg") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		files = append(files, MapFile{
			Name:     filepath.ToSlash(rel),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return files, nil
		}
		return nil, fmt.Errorf("list maps: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Save кладёт документ в каталог карт под указанным именем.
func (s *MapStore) Save(name string, data []byte) error {
	name = strings.TrimPrefix(name, "/")
	clean := path.Clean(name)
	if name == "" || clean != name || strings.HasPrefix(clean, "../") || clean == ".." ||
		!strings.EqualFold(path.Ext(clean), ".svg") {
		return ErrInvalidName
	}
	target := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("mkdir map dir: %w", err)
	}
	return os.WriteFile(target, data, 0o644)
}
