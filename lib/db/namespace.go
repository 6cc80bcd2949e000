package db

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateNamespace checks that a namespace can safely be used as a file name.
func ValidateNamespace(namespace string) error {
	if strings.TrimSpace(namespace) == "" {
		return fmt.Errorf("namespace must not be empty")
	}
	if strings.ContainsAny(namespace, `/\`) || strings.Contains(namespace, "..") {
		return fmt.Errorf("invalid namespace %q: must not contain path separators or '..'", namespace)
	}
	return nil
}

// NamespacePath returns the path of the file backing namespace inside dataDir.
func NamespacePath(dataDir, namespace, ext string) string {
	return filepath.Join(dataDir, namespace+ext)
}
