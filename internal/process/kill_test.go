package process

import "testing"

// Only harmless PIDs are used: killing a real group from a unit test could
// take down the test runner.

func TestKillProcessGroup_IgnoresInvalidPIDs(t *testing.T) {
	t.Parallel()

	for _, pid := range []int{0, -1, 999999999} {
		KillProcessGroup(pid)
	}
}
