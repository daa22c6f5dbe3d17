//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package cli

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func readSecretLine(stdin *os.File) (string, error) {
	if stdin == nil {
		return "", errors.New("stdin unavailable")
	}

	fd := int(stdin.Fd())
	current, err := unix.IoctlGetTermios(fd, getTermiosRequest)
	if err != nil {
		return "", err
	}
	restore := *current
	silenced := restore
	silenced.Lflag &^= unix.ECHO
	if err := unix.IoctlSetTermios(fd, setTermiosRequest, &silenced); err != nil {
		return "", err
	}
	defer func() {
		_ = unix.IoctlSetTermios(fd, setTermiosRequest, &restore)
	}()

	return readLine(stdin)
}
