package link

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// EnsureReadWrite verifies the current user can open the device for
// reading and writing, attempting remediation when it cannot. Running as
// root the mode is widened directly; otherwise sudo is tried. When both
// fail the returned error wraps ErrPermissionDenied and carries advice the
// caller can show the operator.
func EnsureReadWrite(device string) error {
	if unix.Access(device, unix.R_OK|unix.W_OK) == nil {
		return nil
	}

	if os.Geteuid() == 0 {
		if err := os.Chmod(device, 0o666); err == nil {
			return nil
		}
	} else {
		cmd := exec.Command("sudo", "chmod", "a+rw", device)
		if err := cmd.Run(); err == nil && unix.Access(device, unix.R_OK|unix.W_OK) == nil {
			return nil
		}
	}

	return fmt.Errorf(
		"%w: cannot access %s; add your user to the dialout (or uucp) group and log in again, or run: sudo chmod a+rw %s",
		ErrPermissionDenied, device, device)
}
