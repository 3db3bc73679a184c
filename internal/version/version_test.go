package version

import (
	"strings"
	"testing"
)

func TestInfoDefaults(t *testing.T) {
	v, c, d := Info()
	if v != "dev" || c != "unknown" || d != "unknown" {
		t.Fatalf("unexpected defaults: %s %s %s", v, c, d)
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.Contains(s, "version=dev") {
		t.Fatalf("unexpected string: %s", s)
	}
}
