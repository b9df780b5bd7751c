package secret

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// EnvProvider resolves a reference as a variable name.
type EnvProvider struct {
	lookup LookupFunc
}

// NewEnvProvider creates an "env" provider. A nil lookup reads the process
// environment.
func NewEnvProvider(lookup LookupFunc) *EnvProvider {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &EnvProvider{lookup: lookup}
}

func (p *EnvProvider) Name() string { return "env" }

func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := p.lookup(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s", ErrNotFound, ref)
	}
	return v, nil
}

func (p *EnvProvider) Close() error { return nil }

// FileProvider resolves a reference as a file path, such as a mounted
// container secret. Relative paths are joined to Root.
type FileProvider struct {
	Root string
}

// NewFileProvider creates a "file" provider rooted at root.
func NewFileProvider(root string) *FileProvider {
	return &FileProvider{Root: root}
}

func (p *FileProvider) Name() string { return "file" }

func (p *FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	path := ref
	if p.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(p.Root, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: file %s", ErrNotFound, ref)
		}
		return "", fmt.Errorf("secret: read %s: %w", ref, err)
	}
	return strings.TrimRight(string(data), " \t\r\n"), nil
}

func (p *FileProvider) Close() error { return nil }

// DotenvProvider resolves references of the form "path#KEY" against .env
// files. Parsed files are kept until Close.
type DotenvProvider struct {
	mu    sync.Mutex
	files map[string]map[string]string
}

// NewDotenvProvider creates a "dotenv" provider.
func NewDotenvProvider() *DotenvProvider {
	return &DotenvProvider{files: make(map[string]map[string]string)}
}

func (p *DotenvProvider) Name() string { return "dotenv" }

func (p *DotenvProvider) Resolve(_ context.Context, ref string) (string, error) {
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" {
		return "", fmt.Errorf("secret: dotenv ref %q must be path#KEY", ref)
	}

	values, err := p.load(path)
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("%w: dotenv %s", ErrNotFound, ref)
	}
	return v, nil
}

func (p *DotenvProvider) load(path string) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if values, ok := p.files[path]; ok {
		return values, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("secret: read dotenv %s: %w", path, err)
	}
	p.files[path] = values
	return values, nil
}

func (p *DotenvProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.files)
	return nil
}

var (
	_ Provider = (*EnvProvider)(nil)
	_ Provider = (*FileProvider)(nil)
	_ Provider = (*DotenvProvider)(nil)
)
