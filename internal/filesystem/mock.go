package filesystem

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MockFileSystem provides in-memory filesystem for testing
type MockFileSystem struct {
	files      map[string]*MockFile
	currentDir string

	// Hooks for testing error scenarios, keyed by cleaned path
	WriteErrors  map[string]error
	RenameErrors map[string]error
}

// MockFile represents a file or directory in the mock filesystem
type MockFile struct {
	Content []byte
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}

type mockFileInfo struct {
	name string
	file *MockFile
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return int64(len(m.file.Content)) }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.file.Mode }
func (m *mockFileInfo) ModTime() time.Time { return m.file.ModTime }
func (m *mockFileInfo) IsDir() bool        { return m.file.IsDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

type mockDirEntry struct {
	info *mockFileInfo
}

func (m *mockDirEntry) Name() string               { return m.info.Name() }
func (m *mockDirEntry) IsDir() bool                { return m.info.IsDir() }
func (m *mockDirEntry) Type() fs.FileMode          { return m.info.Mode().Type() }
func (m *mockDirEntry) Info() (fs.FileInfo, error) { return m.info, nil }

// NewMockFileSystem creates a new MockFileSystem rooted at /workspace
func NewMockFileSystem() *MockFileSystem {
	mfs := &MockFileSystem{
		files:        make(map[string]*MockFile),
		currentDir:   "/workspace",
		WriteErrors:  make(map[string]error),
		RenameErrors: make(map[string]error),
	}
	mfs.AddDir("/workspace")
	return mfs
}

// AddFile adds a regular file, creating parent directories
func (mfs *MockFileSystem) AddFile(path string, content []byte) {
	mfs.AddFileWithMode(path, content, 0644)
}

// AddFileWithMode adds a file with explicit permission bits
func (mfs *MockFileSystem) AddFileWithMode(path string, content []byte, mode fs.FileMode) {
	cleanPath := filepath.Clean(path)
	mfs.AddDir(filepath.Dir(cleanPath))
	mfs.files[cleanPath] = &MockFile{
		Content: append([]byte(nil), content...),
		Mode:    mode,
		ModTime: time.Now(),
	}
}

// AddDir adds a directory and its parents
func (mfs *MockFileSystem) AddDir(path string) {
	for dir := filepath.Clean(path); ; dir = filepath.Dir(dir) {
		if _, exists := mfs.files[dir]; !exists {
			mfs.files[dir] = &MockFile{
				Mode:    0755 | fs.ModeDir,
				ModTime: time.Now(),
				IsDir:   true,
			}
		}
		if parent := filepath.Dir(dir); parent == dir {
			return
		}
	}
}

func (mfs *MockFileSystem) ReadFile(path string) ([]byte, error) {
	file, exists := mfs.files[filepath.Clean(path)]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	if file.IsDir {
		return nil, &fs.PathError{Op: "read", Path: path, Err: errors.New("is a directory")}
	}
	return append([]byte(nil), file.Content...), nil
}

func (mfs *MockFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	cleanPath := filepath.Clean(path)
	if err := mfs.WriteErrors[cleanPath]; err != nil {
		return err
	}

	parent, exists := mfs.files[filepath.Dir(cleanPath)]
	if !exists || !parent.IsDir {
		return &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}

	if existing, ok := mfs.files[cleanPath]; ok {
		if existing.IsDir {
			return &fs.PathError{Op: "open", Path: path, Err: errors.New("is a directory")}
		}
		perm = existing.Mode
	}

	mfs.files[cleanPath] = &MockFile{
		Content: append([]byte(nil), data...),
		Mode:    perm,
		ModTime: time.Now(),
	}
	return nil
}

// Rename moves a file or a whole directory subtree. Like os.Rename it replaces
// an existing destination file.
func (mfs *MockFileSystem) Rename(oldPath, newPath string) error {
	from := filepath.Clean(oldPath)
	to := filepath.Clean(newPath)
	if err := mfs.RenameErrors[from]; err != nil {
		return err
	}

	src, exists := mfs.files[from]
	if !exists {
		return &fs.PathError{Op: "rename", Path: oldPath, Err: fs.ErrNotExist}
	}
	if parent, ok := mfs.files[filepath.Dir(to)]; !ok || !parent.IsDir {
		return &fs.PathError{Op: "rename", Path: newPath, Err: fs.ErrNotExist}
	}

	if !src.IsDir {
		mfs.files[to] = src
		delete(mfs.files, from)
		return nil
	}

	prefix := from + string(filepath.Separator)
	moved := make(map[string]*MockFile)
	for p, f := range mfs.files {
		if p == from {
			moved[to] = f
			delete(mfs.files, p)
		} else if strings.HasPrefix(p, prefix) {
			moved[filepath.Join(to, strings.TrimPrefix(p, prefix))] = f
			delete(mfs.files, p)
		}
	}
	for p, f := range moved {
		mfs.files[p] = f
	}
	return nil
}

func (mfs *MockFileSystem) Remove(path string) error {
	cleanPath := filepath.Clean(path)
	file, exists := mfs.files[cleanPath]
	if !exists {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	if file.IsDir && len(mfs.children(cleanPath)) > 0 {
		return &fs.PathError{Op: "remove", Path: path, Err: errors.New("directory not empty")}
	}
	delete(mfs.files, cleanPath)
	return nil
}

func (mfs *MockFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	cleanPath := filepath.Clean(path)

	file, exists := mfs.files[cleanPath]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	if !file.IsDir {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: errors.New("not a directory")}
	}

	var entries []fs.DirEntry
	for _, p := range mfs.children(cleanPath) {
		entries = append(entries, &mockDirEntry{info: &mockFileInfo{name: filepath.Base(p), file: mfs.files[p]}})
	}
	return entries, nil
}

// children returns the sorted direct children of dir
func (mfs *MockFileSystem) children(dir string) []string {
	var paths []string
	for p := range mfs.files {
		if p != dir && filepath.Dir(p) == dir {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func (mfs *MockFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	cleanPath := filepath.Clean(path)
	if file, exists := mfs.files[cleanPath]; exists && !file.IsDir {
		return &fs.PathError{Op: "mkdir", Path: path, Err: errors.New("not a directory")}
	}
	mfs.AddDir(cleanPath)
	return nil
}

func (mfs *MockFileSystem) Stat(path string) (fs.FileInfo, error) {
	file, exists := mfs.files[filepath.Clean(path)]
	if !exists {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return &mockFileInfo{name: filepath.Base(path), file: file}, nil
}

func (mfs *MockFileSystem) Exists(path string) bool {
	_, exists := mfs.files[filepath.Clean(path)]
	return exists
}

func (mfs *MockFileSystem) Getwd() (string, error) {
	return mfs.currentDir, nil
}

// WalkDir visits root and everything below it in lexical order, honoring fs.SkipDir
func (mfs *MockFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	cleanRoot := filepath.Clean(root)
	if _, exists := mfs.files[cleanRoot]; !exists {
		return fn(root, nil, &fs.PathError{Op: "lstat", Path: root, Err: fs.ErrNotExist})
	}

	var paths []string
	for p := range mfs.files {
		if p == cleanRoot || strings.HasPrefix(p, cleanRoot+string(filepath.Separator)) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var skipped []string
	for _, p := range paths {
		if underAny(p, skipped) {
			continue
		}
		file := mfs.files[p]
		entry := &mockDirEntry{info: &mockFileInfo{name: filepath.Base(p), file: file}}
		if err := fn(p, entry, nil); err != nil {
			if errors.Is(err, fs.SkipDir) && file.IsDir {
				skipped = append(skipped, p+string(filepath.Separator))
				continue
			}
			if errors.Is(err, fs.SkipAll) {
				return nil
			}
			return err
		}
	}
	return nil
}

func underAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// SetCurrentDir sets the current working directory for the mock
func (mfs *MockFileSystem) SetCurrentDir(dir string) {
	mfs.AddDir(dir)
	mfs.currentDir = filepath.Clean(dir)
}

// Paths returns every regular file below root, sorted, relative to root
func (mfs *MockFileSystem) Paths(root string) []string {
	cleanRoot := filepath.Clean(root)
	var paths []string
	for p, f := range mfs.files {
		if f.IsDir || !strings.HasPrefix(p, cleanRoot+string(filepath.Separator)) {
			continue
		}
		rel, _ := filepath.Rel(cleanRoot, p)
		paths = append(paths, filepath.ToSlash(rel))
	}
	sort.Strings(paths)
	return paths
}

// Content returns a file's content as a string, or "" when it does not exist
func (mfs *MockFileSystem) Content(path string) string {
	file, exists := mfs.files[filepath.Clean(path)]
	if !exists || file.IsDir {
		return ""
	}
	return string(file.Content)
}
