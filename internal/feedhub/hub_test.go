package feedhub

import (
	"testing"

	"twelfthman/internal/models"
)

func TestHub_FiltersByFixture(t *testing.T) {
	h := New(nil)
	all, cancelAll := h.Subscribe("", 4)
	defer cancelAll()
	one, cancelOne := h.Subscribe("fx-1", 4)
	defer cancelOne()

	h.Publish(models.Take{ID: "a", FixtureID: "fx-1"}, models.Take{ID: "b", FixtureID: "fx-2"})

	if got := len(all); got != 2 {
		t.Fatalf("all=%d want=2", got)
	}
	if got := len(one); got != 1 {
		t.Fatalf("one=%d want=1", got)
	}
	if tk := <-one; tk.ID != "a" {
		t.Fatalf("id=%s want=a", tk.ID)
	}
}

func TestHub_DropsWhenFull(t *testing.T) {
	h := New(nil)
	_, cancel := h.Subscribe("", 1)
	h.Publish(models.Take{ID: "a"}, models.Take{ID: "b"}, models.Take{ID: "c"})
	if got := h.Dropped(); got != 2 {
		t.Fatalf("dropped=%d want=2", got)
	}
	cancel()
	cancel()
	if h.Subscribers() != 0 {
		t.Fatalf("subscribers=%d want=0", h.Subscribers())
	}
}
