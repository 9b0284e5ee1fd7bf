package health

import "testing"

func TestSnapshot_SortedAndCurrent(t *testing.T) {
	svc := NewService()
	svc.MarkHealthy("zeta-llm", "chat")
	svc.MarkUnhealthy("alpha-img", "image", "connection refused")

	snapshot := svc.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 statuses, got %d", len(snapshot))
	}
	if snapshot[0].Name != "alpha-img" || snapshot[1].Name != "zeta-llm" {
		t.Errorf("Expected name-sorted snapshot, got %s, %s", snapshot[0].Name, snapshot[1].Name)
	}
	if snapshot[0].Healthy {
		t.Error("alpha-img must be unhealthy")
	}
	if snapshot[0].LastError != "connection refused" {
		t.Errorf("Expected last error to be recorded, got %q", snapshot[0].LastError)
	}
}

func TestMarkHealthy_ClearsPreviousError(t *testing.T) {
	svc := NewService()
	svc.MarkUnhealthy("llm", "chat", "timeout")
	svc.MarkHealthy("llm", "chat")

	snapshot := svc.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("Expected 1 status, got %d", len(snapshot))
	}
	if !snapshot[0].Healthy || snapshot[0].LastError != "" {
		t.Errorf("Recovery must clear the error, got %+v", snapshot[0])
	}
}
