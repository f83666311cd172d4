package platform

import (
	"errors"
	"runtime"
	"testing"
)

func TestAcquireOwnerIsExclusivePerDatabase(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fixed unix paths")
	}
	const appName = "focustimer-owner-test"
	dbA := "/tmp/focustimer-owner-a.db"
	dbB := "/tmp/focustimer-owner-b.db"

	first, err := AcquireOwner(appName, dbA)
	if err != nil {
		t.Skipf("port unavailable in this environment: %v", err)
	}
	if first.Address() == "" {
		t.Fatalf("expected bound address")
	}

	if _, err := AcquireOwner(appName, dbA); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second AcquireOwner on the same database = %v, want ErrAlreadyRunning", err)
	}

	other, err := AcquireOwner(appName, dbB)
	if err != nil {
		t.Fatalf("AcquireOwner on another database = %v, want nil", err)
	}
	if other.Address() == first.Address() {
		t.Fatalf("both databases share %s", first.Address())
	}
	_ = other.Release()

	if err := first.Release(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release = %v, want nil", err)
	}

	again, err := AcquireOwner(appName, dbA)
	if err != nil {
		t.Fatalf("AcquireOwner after release = %v", err)
	}
	_ = again.Release()
}

func TestOwnerKeyNormalisesPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fixed unix paths")
	}
	clean, err := ownerKey("focustimer", "/data/a.db")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	messy, err := ownerKey("focustimer", "/data/../data/./a.db")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clean != messy {
		t.Fatalf("keys differ: %q vs %q", clean, messy)
	}
}

func TestOwnerPortDependsOnKey(t *testing.T) {
	tests := []struct {
		key  string
		want int
	}{
		{key: "focustimer\x00/data/a.db", want: 39119},
		{key: "focustimer\x00/data/b.db", want: 23748},
	}
	for _, tt := range tests {
		if got := ownerPort(tt.key); got != tt.want {
			t.Fatalf("ownerPort(%q) = %d, want %d", tt.key, got, tt.want)
		}
		if got := ownerPort(tt.key); got < minOwnerPort || got > maxOwnerPort {
			t.Fatalf("port %d out of range", got)
		}
	}
}
