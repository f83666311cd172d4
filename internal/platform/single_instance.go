package platform

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"path/filepath"
)

// ErrAlreadyRunning indicates another process already drives the timer stored
// in the same database.
var ErrAlreadyRunning = errors.New("timer already owned by another process")

const (
	minOwnerPort = 20000
	maxOwnerPort = 39999
)

// OwnerGuard marks this process as the only writer of one database's timer
// session and snapshot slot.
type OwnerGuard struct {
	listener net.Listener
	key      string
	address  string
}

// AcquireOwner claims the database at dbPath for appName by binding a
// localhost port derived from both. Different databases get different ports,
// so each can have its own owner.
func AcquireOwner(appName, dbPath string) (*OwnerGuard, error) {
	key, err := ownerKey(appName, dbPath)
	if err != nil {
		return nil, err
	}
	address := fmt.Sprintf("127.0.0.1:%d", ownerPort(key))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: database %s: %v", ErrAlreadyRunning, dbPath, err)
	}
	return &OwnerGuard{listener: listener, key: key, address: address}, nil
}

// Release gives up ownership. Releasing twice is a no-op.
func (guard *OwnerGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	err := guard.listener.Close()
	guard.listener = nil
	return err
}

func (guard *OwnerGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func ownerKey(appName, dbPath string) (string, error) {
	absolute, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}
	return appName + "\x00" + filepath.Clean(absolute), nil
}

func ownerPort(key string) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(key))
	return minOwnerPort + int(hash.Sum32()%uint32(maxOwnerPort-minOwnerPort+1))
}
