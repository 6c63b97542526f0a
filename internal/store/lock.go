package store

import (
	"fmt"

	"github.com/gofrs/flock"
)

// fileLock guards one read-modify-write across processes. A nil lock is a
// no-op so the common single-process configuration pays nothing.
type fileLock struct {
	lock *flock.Flock
}

func newFileLock(path string, enabled bool) *fileLock {
	if !enabled {
		return nil
	}
	return &fileLock{lock: flock.New(path + ".lock")}
}

func (l *fileLock) acquire(exclusive bool) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	var err error
	if exclusive {
		err = l.lock.Lock()
	} else {
		err = l.lock.RLock()
	}
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", l.lock.Path(), err)
	}
	return func() { _ = l.lock.Unlock() }, nil
}
