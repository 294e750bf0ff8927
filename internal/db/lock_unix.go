//go:build unix

package db

import (
	"os"
	"syscall"
)

// tryLock takes a non-blocking flock on the replica's lock file. A
// second regdesk process holding the lock makes this fail immediately;
// the caller's backoff loop handles waiting.
func (l *writeLocker) tryLock() error {
	return syscall.Flock(int(l.lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

func (l *writeLocker) unlock() {
	if l.lockFile != nil {
		syscall.Flock(int(l.lockFile.Fd()), syscall.LOCK_UN)
	}
}

// isProcessAlive reports whether the pid recorded in the lock file
// still belongs to a running process. FindProcess never fails on Unix,
// so signal 0 does the actual check.
func isProcessAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
