package traceid

import (
	"testing"
	"time"
)

func TestNew_Version7(t *testing.T) {
	u, err := New()
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got := u.Version(); got != 7 {
		t.Fatalf("version=%d", got)
	}
	if got := u.Variant(); got.String() != "RFC4122" {
		t.Fatalf("variant=%v", got)
	}
}

func TestNew_TimeOrdered(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	time.Sleep(2 * time.Millisecond)
	b, err := New()
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if a.String() >= b.String() {
		t.Fatalf("not ordered: %s >= %s", a, b)
	}
}

func TestNewString(t *testing.T) {
	s := NewString()
	if len(s) != 36 {
		t.Fatalf("len=%d s=%q", len(s), s)
	}
}
