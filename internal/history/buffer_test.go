package history

import (
	"strconv"
	"testing"
)

func TestBuffer_LengthIsMinOfPushesAndCapacity(t *testing.T) {
	b := NewBuffer(DefaultCapacity)
	for n := 1; n <= 100; n++ {
		b.Push(strconv.Itoa(n), float64(n), float64(n*2))

		snap := b.Snapshot()
		want := n
		if want > DefaultCapacity {
			want = DefaultCapacity
		}
		if b.Len() != want {
			t.Fatalf("after %d pushes: Len()=%d, want %d", n, b.Len(), want)
		}
		if len(snap.Labels) != want || len(snap.Temp) != want || len(snap.Humi) != want {
			t.Fatalf("after %d pushes: uneven series labels=%d temp=%d humi=%d",
				n, len(snap.Labels), len(snap.Temp), len(snap.Humi))
		}
	}
}

func TestBuffer_EvictsOldestFirst(t *testing.T) {
	b := NewBuffer(3)
	for i := 1; i <= 5; i++ {
		b.Push(strconv.Itoa(i), float64(i), float64(10+i))
	}
	snap := b.Snapshot()
	wantLabels := []string{"3", "4", "5"}
	for i, l := range wantLabels {
		if snap.Labels[i] != l {
			t.Fatalf("labels=%v, want %v", snap.Labels, wantLabels)
		}
		if snap.Temp[i] != float64(i+3) || snap.Humi[i] != float64(13+i) {
			t.Fatalf("series out of step at %d: temp=%v humi=%v", i, snap.Temp, snap.Humi)
		}
	}
}

func TestBuffer_SnapshotIsACopy(t *testing.T) {
	b := NewBuffer(2)
	b.Push("a", 1, 2)
	snap := b.Snapshot()
	snap.Temp[0] = 99
	if got := b.Snapshot().Temp[0]; got != 1 {
		t.Fatalf("snapshot aliases buffer storage: got %v", got)
	}
}

func TestBuffer_ResetAndDefaultCapacity(t *testing.T) {
	b := NewBuffer(0)
	if b.Capacity() != DefaultCapacity {
		t.Fatalf("capacity=%d, want %d", b.Capacity(), DefaultCapacity)
	}
	b.Push("a", 1, 1)
	b.Reset()
	if b.Len() != 0 || b.Snapshot().Len() != 0 {
		t.Fatalf("expected empty buffer after Reset")
	}
}
