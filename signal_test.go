package overdrive

import (
	"testing"
	"time"
)

func TestFrameSignalCoalesces(t *testing.T) {
	s := newFrameSignal()
	for i := 0; i < 5; i++ {
		s.raise()
	}
	if !s.wait() {
		t.Fatal("wait() = false")
	}

	woke := make(chan bool, 1)
	go func() { woke <- s.wait() }()
	select {
	case <-woke:
		t.Fatal("second wait() returned without a raise")
	case <-time.After(20 * time.Millisecond):
	}
	s.raise()
	select {
	case ok := <-woke:
		if !ok {
			t.Error("wait() = false after raise")
		}
	case <-time.After(time.Second):
		t.Fatal("wait() did not wake")
	}
}

func TestFrameSignalClose(t *testing.T) {
	s := newFrameSignal()
	woke := make(chan bool, 1)
	go func() { woke <- s.wait() }()
	time.Sleep(5 * time.Millisecond)
	s.close()
	select {
	case ok := <-woke:
		if ok {
			t.Error("wait() = true after close")
		}
	case <-time.After(time.Second):
		t.Fatal("close() did not wake the waiter")
	}
	s.raise()
	if s.wait() {
		t.Error("wait() = true on closed signal")
	}
	s.reopen()
	s.raise()
	if !s.wait() {
		t.Error("wait() = false after reopen")
	}
}
