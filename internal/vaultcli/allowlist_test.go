package vaultcli

import (
	"strings"
	"testing"
)

func TestIsAllowedCommand_AllVerbs(t *testing.T) {
	t.Parallel()

	for _, verb := range AllowedCommands() {
		if !IsAllowedCommand(verb) {
			t.Errorf("IsAllowedCommand(%q) = false", verb)
		}
	}
}

func TestIsAllowedCommand_Rejections(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"rm",
		"Lock",       // case-sensitive
		"LOCK",
		"lock ",      // no trimming
		" unlock",
		"unlockk",
		"un",
		"device-approvals",
		"sudo",
	}
	for _, verb := range tests {
		if IsAllowedCommand(verb) {
			t.Errorf("IsAllowedCommand(%q) = true, want false", verb)
		}
	}
}

func TestAllowedCommands_SortedAndComplete(t *testing.T) {
	t.Parallel()

	verbs := AllowedCommands()
	if len(verbs) != 21 {
		t.Fatalf("allowlist has %d verbs, want 21: %v", len(verbs), verbs)
	}
	for i := 1; i < len(verbs); i++ {
		if strings.Compare(verbs[i-1], verbs[i]) >= 0 {
			t.Errorf("verbs not sorted at %d: %q >= %q", i, verbs[i-1], verbs[i])
		}
	}
}
