package common

import (
	"os"
	"path/filepath"
	"strings"

	"flarewatch/pkg/errors"
)

// CleanPath normalizes an operator-supplied path and makes it absolute.
// A leading "~/" is expanded to the home directory.
func CleanPath(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "empty path")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeFileOperation, "cannot resolve home directory")
		}
		path = filepath.Join(home, path[2:])
	}

	cleaned := filepath.Clean(path)
	if strings.HasPrefix(cleaned, "..") {
		return "", errors.New(errors.ErrCodeFilePermission, "path escapes the working directory").
			WithContext("path", path)
	}

	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeFileOperation, "cannot resolve absolute path").
			WithContext("path", path)
	}
	return abs, nil
}

// ValidatePath cleans path and ensures it lies within baseDir.
func ValidatePath(path, baseDir string) (string, error) {
	cleanedPath, err := CleanPath(path)
	if err != nil {
		return "", err
	}
	cleanedBase, err := CleanPath(baseDir)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(cleanedBase, cleanedPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New(errors.ErrCodeFilePermission, "path is outside the allowed directory").
			WithContext("path", path).
			WithContext("base", baseDir)
	}
	return cleanedPath, nil
}
