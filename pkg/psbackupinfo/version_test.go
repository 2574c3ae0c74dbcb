package psbackupinfo

import "testing"

func TestVersionFormat(t *testing.T) {
	expected := "0.1.0"
	if Version != expected {
		t.Fatalf("Version = %q, want %q", Version, expected)
	}
}
