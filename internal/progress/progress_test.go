package progress

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTrackerUpdates(t *testing.T) {
	tracker := NewTracker()

	var receivedEvents []Event
	tracker.AddListener(func(event Event) {
		receivedEvents = append(receivedEvents, event)
	})

	tracker.Update(StageInitializing, 0, "preparing")
	tracker.UpdateFrame(5, 10, 0.4)

	if len(receivedEvents) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(receivedEvents))
	}
	if receivedEvents[0].Stage != StageInitializing {
		t.Errorf("Expected initializing stage, got %s", receivedEvents[0].Stage)
	}
	if receivedEvents[1].Stage != StageRendering {
		t.Errorf("Expected rendering stage, got %s", receivedEvents[1].Stage)
	}
	if receivedEvents[1].Frame != 5 || receivedEvents[1].Frames != 10 {
		t.Errorf("Expected frame 5/10, got %d/%d", receivedEvents[1].Frame, receivedEvents[1].Frames)
	}

	state := tracker.Current()
	if state.Progress != 0.4 {
		t.Errorf("Expected progress 0.4, got %f", state.Progress)
	}
}

func TestTrackerFail(t *testing.T) {
	tracker := NewTracker()

	failure := errors.New("encoder exploded")
	tracker.Fail(failure)

	state := tracker.Current()
	if state.Stage != StageFailed {
		t.Errorf("Expected failed stage, got %s", state.Stage)
	}
	if state.Error != failure.Error() {
		t.Errorf("Expected error %q, got %q", failure.Error(), state.Error)
	}
}

func TestEventJSON(t *testing.T) {
	tracker := NewTracker()
	tracker.UpdateFrame(3, 100, 0.024)

	data, err := json.Marshal(tracker.Current())
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}

	var unmarshaled Event
	if err := json.Unmarshal(data, &unmarshaled); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}

	if unmarshaled.Stage != StageRendering {
		t.Errorf("Expected stage %s, got %s", StageRendering, unmarshaled.Stage)
	}
	if unmarshaled.Frame != 3 {
		t.Errorf("Expected frame 3, got %d", unmarshaled.Frame)
	}
}

func TestListenerRemoval(t *testing.T) {
	tracker := NewTracker()

	var receivedEvents []Event
	remove := tracker.AddListener(func(event Event) {
		receivedEvents = append(receivedEvents, event)
	})

	tracker.Update(StageRendering, 0.5, "halfway")
	if len(receivedEvents) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(receivedEvents))
	}

	remove()
	tracker.Update(StageRendering, 0.75, "later")
	if len(receivedEvents) != 1 {
		t.Errorf("Expected 1 event after removal, got %d", len(receivedEvents))
	}
}
