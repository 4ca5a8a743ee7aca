package store

import "testing"

func TestExitEncoding(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		value    int
		signaled bool
	}{
		{"clean exit", EncodeExit(0), 0, false},
		{"nonzero exit", EncodeExit(42), 42, false},
		{"max exit", EncodeExit(255), 255, false},
		{"sigkill", EncodeSignal(9), 9, true},
		{"sigsegv", EncodeSignal(11), 11, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, signaled := DecodeExit(tt.code)
			if value != tt.value || signaled != tt.signaled {
				t.Errorf("DecodeExit(%#x) = %d, %v; want %d, %v",
					tt.code, value, signaled, tt.value, tt.signaled)
			}
		})
	}
}

func TestEncodeSignalBit(t *testing.T) {
	if EncodeSignal(9) != 0x0109 {
		t.Errorf("EncodeSignal(9) = %#x, want 0x0109", EncodeSignal(9))
	}
	if EncodeExit(9) != 9 {
		t.Errorf("EncodeExit(9) = %#x, want 9", EncodeExit(9))
	}
}

func TestArgvRoundTrip(t *testing.T) {
	tests := [][]string{
		{"true"},
		{"sh", "-c", "echo hi"},
		{"prog", "", "empty-then-more"},
		{"tab\targ", "space arg", "newline\narg"},
	}
	for _, argv := range tests {
		got := SplitArgv(JoinArgv(argv))
		if len(got) != len(argv) {
			t.Fatalf("round trip %v -> %v", argv, got)
		}
		for i := range argv {
			if got[i] != argv[i] {
				t.Errorf("round trip %v -> %v", argv, got)
			}
		}
	}
}

func TestSplitArgvToleratesMissingTrailingSeparator(t *testing.T) {
	got := SplitArgv("a\x00b")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("SplitArgv = %v", got)
	}
}

func TestJoinArgvTrailingSeparator(t *testing.T) {
	joined := JoinArgv([]string{"a", "b"})
	if joined != "a\x00b\x00" {
		t.Errorf("JoinArgv = %q", joined)
	}
}
