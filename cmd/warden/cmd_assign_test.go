package main

import (
	"testing"
)

func TestParseSubtasks(t *testing.T) {
	subtasks, err := parseSubtasks(
		[]string{"migrate@worker-1", "lint"},
		`[{"task_id":"t-1","name":"review","agent":"worker-2"}]`,
	)
	if err != nil {
		t.Fatalf("parseSubtasks: %v", err)
	}
	if len(subtasks) != 3 {
		t.Fatalf("subtasks = %d, want 3", len(subtasks))
	}

	if subtasks[0].Name != "migrate" || subtasks[0].Agent != "worker-1" {
		t.Errorf("spec with worker = %+v", subtasks[0])
	}
	// No "@worker" suffix targets the default worker.
	if subtasks[1].Name != "lint" || subtasks[1].Agent != "" {
		t.Errorf("bare spec = %+v", subtasks[1])
	}
	if subtasks[2].TaskID != "t-1" || subtasks[2].Agent != "worker-2" {
		t.Errorf("JSON subtask = %+v", subtasks[2])
	}
}

func TestParseSubtasksErrors(t *testing.T) {
	if _, err := parseSubtasks([]string{"@worker-1"}, ""); err == nil {
		t.Error("empty task name accepted")
	}
	if _, err := parseSubtasks(nil, "{not an array"); err == nil {
		t.Error("malformed JSON accepted")
	}
}
