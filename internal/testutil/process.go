package testutil

import (
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessGone reports whether pid has exited, polling for up to two seconds.
// Zombies count as gone: in containers an orphan may never be reaped by pid 1.
func ProcessGone(t *testing.T, pid int32) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		exists, err := process.PidExists(pid)
		if err != nil {
			t.Fatalf("PidExists(%d): %v", pid, err)
		}
		if !exists {
			return true
		}
		if p, err := process.NewProcess(pid); err == nil {
			if status, err := p.Status(); err == nil && len(status) > 0 && status[0] == process.Zombie {
				return true
			}
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(20 * time.Millisecond)
	}
}
