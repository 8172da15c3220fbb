package distribution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	appforms "github.com/formflow/backend/internal/application/forms"
	"go.uber.org/zap"
)

// Ensure the filesystem adapters implement their ports
var (
	_ appforms.FileSaver     = (*FileSystemSaver)(nil)
	_ appforms.ArtifactStore = (*FileSystemArtifactStore)(nil)
)

// FileSystemSaver writes generated documents to a server-side directory
// for the server save channel
type FileSystemSaver struct {
	basePath string
	logger   *zap.Logger
}

// NewFileSystemSaver creates a saver rooted at basePath
func NewFileSystemSaver(basePath string, logger *zap.Logger) (*FileSystemSaver, error) {
	if basePath == "" {
		basePath = "/data/documents"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory %s: %w", basePath, err)
	}
	return &FileSystemSaver{basePath: basePath, logger: logger}, nil
}

// Save writes the document under basePath and returns the full path
func (s *FileSystemSaver) Save(ctx context.Context, relPath string, data []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if len(data) == 0 {
		return "", errors.New("document data is empty")
	}

	fullPath, err := resolveUnder(s.basePath, relPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	s.logger.Info("document saved",
		zap.String("path", fullPath),
		zap.Int("bytes", len(data)))
	return fullPath, nil
}

// FileSystemArtifactStore persists download artifacts on disk and hands
// out URLs under a configured prefix
type FileSystemArtifactStore struct {
	basePath string
	baseURL  string
	logger   *zap.Logger
}

// NewFileSystemArtifactStore creates an artifact store rooted at basePath
func NewFileSystemArtifactStore(basePath, baseURL string, logger *zap.Logger) (*FileSystemArtifactStore, error) {
	if basePath == "" {
		basePath = "/data/artifacts"
	}
	if baseURL == "" {
		baseURL = "/api/v1/artifacts"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", basePath, err)
	}
	return &FileSystemArtifactStore{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}, nil
}

// Store writes the artifact and returns the URL it is served under
func (s *FileSystemArtifactStore) Store(ctx context.Context, name string, data []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if len(data) == 0 {
		return "", errors.New("artifact data is empty")
	}

	fullPath, err := resolveUnder(s.basePath, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	url := s.baseURL + "/" + filepath.ToSlash(filepath.Base(fullPath))
	s.logger.Info("artifact stored",
		zap.String("path", fullPath),
		zap.String("url", url),
		zap.Int("bytes", len(data)))
	return url, nil
}

// Open returns the stored artifact file for serving downloads
func (s *FileSystemArtifactStore) Open(name string) (*os.File, error) {
	fullPath, err := resolveUnder(s.basePath, name)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// resolveUnder joins relPath below base and rejects traversal attempts
func resolveUnder(base, relPath string) (string, error) {
	cleanPath := filepath.Clean(relPath)
	if filepath.IsAbs(cleanPath) || containsDotDot(relPath) {
		return "", errors.New("invalid path")
	}

	fullPath := filepath.Join(base, cleanPath)
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return "", errors.New("invalid path")
	}
	return fullPath, nil
}

// containsDotDot checks if a path contains ".." components
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}
