package syscalls

import "testing"

func TestFileModeString(t *testing.T) {
	tests := []struct {
		mode FileMode
		want string
	}{
		{ModeRead, "read"},
		{ModeWrite, "write"},
		{ModeRead | ModeWrite, "read|write"},
		{ModeWorkingDir, "wdir"},
		{ModeStat, "stat"},
		{ModeLink, "link"},
		{ModeDelete, "delete"},
		{ModeRead | ModeWorkingDir, "read|wdir"},
		{0, "none"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("FileMode(%#x).String() = %q, want %q", int(tt.mode), got, tt.want)
		}
	}
}

func TestModeBitsAreDistinct(t *testing.T) {
	bits := []FileMode{ModeRead, ModeWrite, ModeWorkingDir, ModeStat, ModeLink, ModeDelete}
	var all FileMode
	for _, b := range bits {
		if all&b != 0 {
			t.Fatalf("mode bit %#x overlaps", int(b))
		}
		all |= b
	}
}
