package netutil

import (
	"net"
	"testing"
	"time"
)

func TestSelectBindAddrPreferredFree(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	got, err := SelectBindAddr(addr, nil, false)
	if err != nil {
		t.Fatalf("SelectBindAddr() error = %v", err)
	}
	if got != addr {
		t.Fatalf("SelectBindAddr() = %q, want %q", got, addr)
	}
}

func TestSelectBindAddrFallback(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen busy: %v", err)
	}
	defer func() { _ = busy.Close() }()

	free, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen free: %v", err)
	}
	freeAddr := free.Addr().String()
	_ = free.Close()

	got, err := SelectBindAddr(busy.Addr().String(), []string{busy.Addr().String(), freeAddr}, true)
	if err != nil {
		t.Fatalf("SelectBindAddr() error = %v", err)
	}
	if got != freeAddr {
		t.Fatalf("SelectBindAddr() = %q, want %q", got, freeAddr)
	}
}

func TestSelectBindAddrNoFallback(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen busy: %v", err)
	}
	defer func() { _ = busy.Close() }()

	if _, err := SelectBindAddr(busy.Addr().String(), nil, false); err == nil {
		t.Fatal("SelectBindAddr() succeeded on a busy address without fallback")
	}
}

func TestNextPorts(t *testing.T) {
	got, err := NextPorts("127.0.0.1:8290", 3)
	if err != nil {
		t.Fatalf("NextPorts() error = %v", err)
	}
	want := []string{"127.0.0.1:8291", "127.0.0.1:8292", "127.0.0.1:8293"}
	if len(got) != len(want) {
		t.Fatalf("NextPorts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NextPorts()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, err := NextPorts("no-port", 1); err == nil {
		t.Fatal("NextPorts() accepted an address without port")
	}
}

func TestIsListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if !IsListening("127.0.0.1", port, time.Second) {
		t.Fatal("IsListening() = false for an open listener")
	}
	_ = ln.Close()
	if IsListening("127.0.0.1", port, 200*time.Millisecond) {
		t.Fatal("IsListening() = true after close")
	}
}
