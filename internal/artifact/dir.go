package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/fsutil"
	"github.com/tidwall/gjson"
)

// DirSource reads Hardhat-style artifact files (`<Name>.json` containing
// `contractName` and `bytecode`) from a directory tree. Debug files
// (`*.dbg.json`) are ignored.
type DirSource struct {
	root string

	once  sync.Once
	index map[string]string
	err   error
}

// NewDirSource creates a source rooted at dir. The tree is scanned lazily on
// first lookup.
func NewDirSource(dir string) *DirSource {
	return &DirSource{root: dir}
}

// Bytecode implements Source.
func (s *DirSource) Bytecode(ctx context.Context, name string) (string, error) {
	s.once.Do(func() { s.index, s.err = s.scan(ctx) })
	if s.err != nil {
		return "", s.err
	}

	path, ok := s.index[name]
	if !ok {
		return "", &NotFoundError{Name: name, Location: s.root}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading artifact %s: %w", path, err)
	}
	result := gjson.GetBytes(raw, "bytecode")
	// Foundry nests the bytecode one level deeper.
	if result.IsObject() {
		result = result.Get("object")
	}
	code := result.String()
	if code == "" || code == "0x" {
		return "", fmt.Errorf("artifact %s has no bytecode (abstract contract or interface?)", path)
	}
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}
	return code, nil
}

// scan builds the name -> file index. The contractName field wins over the
// file name when both are present.
func (s *DirSource) scan(ctx context.Context) (map[string]string, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(s.root, ".json")
	if err != nil {
		return nil, fmt.Errorf("scanning artifacts in %s: %w", s.root, err)
	}

	index := make(map[string]string, len(files))
	for _, path := range files {
		if strings.HasSuffix(path, ".dbg.json") {
			continue
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading artifact %s: %w", path, err)
		}
		if !gjson.ValidBytes(raw) {
			logger.Warn("Skipping invalid artifact JSON.", "path", path)
			continue
		}
		name := gjson.GetBytes(raw, "contractName").String()
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), ".json")
		}
		if prev, dup := index[name]; dup {
			logger.Warn("Duplicate artifact name, keeping first.", "name", name, "kept", prev, "ignored", path)
			continue
		}
		index[name] = path
	}
	logger.Debug("Artifact directory scanned.", "root", s.root, "artifacts", len(index))
	return index, nil
}
