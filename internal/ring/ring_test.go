package ring

import (
	"testing"
	"time"

	"github.com/sentineld/sentineld/internal/model"
)

func snap(n int) *model.Snapshot {
	return &model.Snapshot{Timestamp: time.Unix(int64(n), 0)}
}

func TestBufferPublishAndLatest(t *testing.T) {
	b := New(3, 4)
	if got := b.Latest(); got != nil {
		t.Fatalf("Latest on empty buffer = %v, want nil", got)
	}

	b.Publish(snap(1))
	b.Publish(snap(2))
	if got := b.Latest(); got.Timestamp.Unix() != 2 {
		t.Fatalf("Latest = %v, want timestamp 2", got)
	}
}

func TestBufferOverwritesOldestWhenFull(t *testing.T) {
	b := New(3, 4)
	for i := 1; i <= 5; i++ {
		b.Publish(snap(i))
	}
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	window := b.Window(3)
	got := []int64{window[0].Timestamp.Unix(), window[1].Timestamp.Unix(), window[2].Timestamp.Unix()}
	want := []int64{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window = %v, want %v", got, want)
		}
	}
}

func TestBufferWindowClampsToSize(t *testing.T) {
	b := New(10, 4)
	b.Publish(snap(1))
	b.Publish(snap(2))
	if got := b.Window(100); len(got) != 2 {
		t.Fatalf("Window(100) on 2-item buffer returned %d items", len(got))
	}
	if got := b.Window(0); got != nil {
		t.Fatalf("Window(0) = %v, want nil", got)
	}
}

func TestBufferSubscribeReceivesPublished(t *testing.T) {
	b := New(10, 4)
	sub := b.Subscribe()
	defer sub.Close()

	b.Publish(snap(1))

	select {
	case got := <-sub.C():
		if got.Timestamp.Unix() != 1 {
			t.Fatalf("received timestamp %v, want 1", got.Timestamp)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published snapshot")
	}
}

func TestBufferSlowConsumerIsDisconnected(t *testing.T) {
	b := New(10, 2)
	sub := b.Subscribe()

	for i := 1; i <= 5; i++ {
		b.Publish(snap(i))
	}

	if b.SlowConsumerDrops() == 0 {
		t.Fatalf("expected at least one slow-consumer drop")
	}

	// The channel should now be closed.
	_, ok := <-sub.C()
	if ok {
		// Channel may still have buffered items before close; drain until closed.
		for ok {
			_, ok = <-sub.C()
		}
	}
}

func TestBufferCloseAllClosesEverySubscriber(t *testing.T) {
	b := New(10, 4)
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	b.CloseAll()

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case _, ok := <-sub.C():
			if ok {
				t.Fatalf("expected closed channel after CloseAll")
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for channel close")
		}
	}
}

func TestBufferPublishNilIsNoop(t *testing.T) {
	b := New(3, 4)
	b.Publish(nil)
	if b.Len() != 0 {
		t.Fatalf("Len after publishing nil = %d, want 0", b.Len())
	}
}
