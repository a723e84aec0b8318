//go:build linux

package ascii

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockExclusive берёт advisory flock на tty, чтобы второй процесс не открыл тот же ODrive.
// Блокировка держится на отдельном дескрипторе до вызова unlock.
func lockExclusive(device string) (unlock func() error, err error) {
	f, err := os.OpenFile(device, os.O_RDONLY|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}
	return func() error {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		return f.Close()
	}, nil
}
