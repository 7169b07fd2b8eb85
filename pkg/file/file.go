package file

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileOperations defines the file access used by the agent's configuration
// and blob store.
type FileOperations interface {
	IsFileExists(filePath string) (bool, error)
	ReadFileRaw(filePath string) ([]byte, error)
	ReadYamlFile(filePath string, v any) error
	WriteFileRaw(filePath string, data []byte) error
	EnsureDir(dirPath string) error
}

// FileService implements the FileOperations interface using standard file operations.
type FileService struct{}

// NewFileService creates a new instance of FileService.
func NewFileService() *FileService {
	return &FileService{}
}

// IsFileExists checks if the file exists.
func (fs *FileService) IsFileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}

	// err == nil check because of permission related errors
	return err == nil, err
}

// ReadFileRaw reads the contents of the file at filePath.
func (fs *FileService) ReadFileRaw(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// ReadYamlFile reads and unmarshals YAML data from the given file.
func (fs *FileService) ReadYamlFile(filePath string, v any) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	return decoder.Decode(v)
}

// WriteFileRaw replaces the file at filePath with data. The new content is
// written to a temporary file first and renamed into place.
func (fs *FileService) WriteFileRaw(filePath string, data []byte) error {
	tempFile := filePath + ".tmp"

	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

// EnsureDir creates dirPath and any missing parents.
func (fs *FileService) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(filepath.Clean(dirPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}
