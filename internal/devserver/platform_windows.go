//go:build windows

package devserver

import "os/exec"

func setupProcessGroup(cmd *exec.Cmd) {}

// terminate has no graceful form on windows.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

func forceKill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
