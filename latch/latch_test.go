package latch

import (
	"testing"
	"time"
)

func TestExclusiveWaitsForSharedHoldersToRelease(t *testing.T) {
	var l Latch
	l.Shared()

	done := make(chan struct{})
	go func() {
		l.Exclusive()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Exclusive should not acquire while a shared holder is active")
	case <-time.After(50 * time.Millisecond):
	}

	l.ShareDone()
	select {
	case <-done:
		l.ExclusiveDone()
	case <-time.After(time.Second):
		t.Fatal("Exclusive never acquired after the shared holder released")
	}
}

func TestMultipleSharedHoldersDoNotBlockEachOther(t *testing.T) {
	var l Latch
	l.Shared()
	done := make(chan struct{})
	go func() {
		l.Shared()
		close(done)
		l.ShareDone()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("a second shared holder should not block on the first")
	}
	l.ShareDone()
}
