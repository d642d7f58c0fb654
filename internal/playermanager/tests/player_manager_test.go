package playermanager_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/annelo/go-world-streamer/internal/playermanager"
)

func TestPlayerManager_AddGetRemove(t *testing.T) {
	pm := playermanager.NewPlayerManager()

	id := uuid.New()
	name := "Alice"
	pos := mgl64.Vec3{0, 0, 0}

	// Add
	if err := pm.AddObserver(id, name, pos); err != nil {
		t.Fatalf("AddObserver returned error: %v", err)
	}

	// Duplicate add should error
	if err := pm.AddObserver(id, name, pos); !errors.Is(err, playermanager.ErrObserverExists) {
		t.Fatalf("expected ErrObserverExists, got %v", err)
	}

	// Get
	o, err := pm.GetObserver(id)
	if err != nil {
		t.Fatalf("GetObserver error: %v", err)
	}
	if o.Name != name || o.Position != pos {
		t.Fatalf("observer data mismatch: got %+v", o)
	}

	// Update position
	newPos := mgl64.Vec3{10, 5, 0}
	if err := pm.UpdatePosition(id, newPos); err != nil {
		t.Fatalf("UpdatePosition error: %v", err)
	}
	if err := pm.Move(id, mgl64.Vec3{1, 0, 1}); err != nil {
		t.Fatalf("Move error: %v", err)
	}
	o, _ = pm.GetObserver(id)
	if o.Position != (mgl64.Vec3{11, 5, 1}) {
		t.Fatalf("position not updated: %v", o.Position)
	}

	// Remove
	if err := pm.RemoveObserver(id); err != nil {
		t.Fatalf("RemoveObserver error: %v", err)
	}

	// Get after remove should fail
	if _, err := pm.GetObserver(id); err == nil {
		t.Fatalf("expected error after removing observer")
	}
}

func TestPlayerManager_Focus(t *testing.T) {
	pm := playermanager.NewPlayerManager()

	if _, err := pm.Focus(); !errors.Is(err, playermanager.ErrNoFocus) {
		t.Fatalf("expected ErrNoFocus on empty manager, got %v", err)
	}

	first := pm.Spawn("camera", mgl64.Vec3{1, 0, 1})
	second := pm.Spawn("player", mgl64.Vec3{500, 0, 500})

	f, err := pm.Focus()
	if err != nil || f.ID != first {
		t.Fatalf("first observer should get focus, got %v (%v)", f.ID, err)
	}

	if err := pm.SetFocus(second); err != nil {
		t.Fatalf("SetFocus error: %v", err)
	}
	if err := pm.SetFocus(uuid.New()); !errors.Is(err, playermanager.ErrObserverNotFound) {
		t.Fatalf("expected ErrObserverNotFound, got %v", err)
	}

	// Removing the focused observer hands focus to the remaining one
	if err := pm.RemoveObserver(second); err != nil {
		t.Fatalf("RemoveObserver error: %v", err)
	}
	f, err = pm.Focus()
	if err != nil || f.ID != first {
		t.Fatalf("focus should move to %v, got %v (%v)", first, f.ID, err)
	}

	if n := len(pm.GetAllObservers()); n != 1 {
		t.Fatalf("expected 1 observer, got %d", n)
	}
}
