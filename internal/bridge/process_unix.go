//go:build unix

package bridge

import (
	"os/exec"
	"syscall"
)

// setProcGroup runs the interpreter in its own process group so a timeout
// also reaches anything it spawned.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process != nil {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	return nil
}
