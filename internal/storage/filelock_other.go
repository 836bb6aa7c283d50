//go:build !unix

package storage

// lockFile is a no-op where flock is unavailable; only the in-process
// mutex guards the history there.
func lockFile(string) (func() error, error) {
	return func() error { return nil }, nil
}
