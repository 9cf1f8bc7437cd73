package keystore

import "os"

// createSecureFolder makes path accessible to the owner and group only. It
// returns the path, or the empty string on failure.
func createSecureFolder(path string) string {
	if err := os.MkdirAll(path, 0740); err != nil {
		return ""
	}
	return path
}

// createSecureFile creates path readable and writable by the owner only.
func createSecureFile(path string) (*os.File, error) {
	fd, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	fd.Close()
	if err := os.Chmod(path, 0600); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_RDWR, 0600)
}

// fileExists reports whether path points at an existing file.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
