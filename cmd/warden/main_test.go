package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"warden/pkg/protocol"
)

// setTestHome isolates every CLI test in a fresh state directory.
func setTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("WARDEN_HOME", home)
	t.Setenv("WARDEN_DB_PATH", "")
	t.Setenv("WARDEN_REGISTRY_PATH", "")
	t.Setenv("WARDEN_CONFIG_PATH", "")
	return home
}

// runWarden executes one CLI invocation and captures its combined output.
func runWarden(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeJSON unmarshals a command's JSON output into v.
func decodeJSON(t *testing.T, output string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("decode output %q: %v", output, err)
	}
}

func TestInitCreatesStateFiles(t *testing.T) {
	home := setTestHome(t)

	out, err := runWarden(t, "init")
	if err != nil {
		t.Fatalf("init: %v\n%s", err, out)
	}
	for _, want := range []string{home, "registry.toml", "config.yaml", "state.db"} {
		if !strings.Contains(out, want) {
			t.Errorf("init output missing %q:\n%s", want, out)
		}
	}

	// Re-running must not clobber the files.
	if _, err := runWarden(t, "init"); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestAcquireReleaseFlow(t *testing.T) {
	setTestHome(t)

	out, err := runWarden(t, "acquire", "--agent", "agent-a", "--module", "api", "--purpose", "refactor")
	if err != nil {
		t.Fatalf("acquire: %v\n%s", err, out)
	}
	var acq protocol.AcquireResult
	decodeJSON(t, out, &acq)
	if !acq.Success || acq.Type != protocol.AcquireNew || acq.Module != "api" {
		t.Fatalf("acquire result = %+v", acq)
	}

	// Re-acquire by the holder is idempotent.
	out, err = runWarden(t, "acquire", "--agent", "agent-a", "--module", "api")
	if err != nil {
		t.Fatal(err)
	}
	var again protocol.AcquireResult
	decodeJSON(t, out, &again)
	if again.Type != protocol.AcquireExisting || again.LockID != acq.LockID {
		t.Errorf("re-acquire = %+v", again)
	}

	// A conflicting acquire is queued, not a process error.
	out, err = runWarden(t, "acquire", "--agent", "agent-b", "--module", "api")
	if err != nil {
		t.Fatalf("conflicting acquire should exit 0: %v", err)
	}
	var queued protocol.AcquireResult
	decodeJSON(t, out, &queued)
	if queued.Error != protocol.ErrLockHeld || queued.QueuePosition != 1 {
		t.Errorf("queued result = %+v", queued)
	}

	out, err = runWarden(t, "release", "--agent", "agent-a", "--module", "api")
	if err != nil {
		t.Fatal(err)
	}
	var rel protocol.ReleaseResult
	decodeJSON(t, out, &rel)
	if !rel.Success || rel.NextInQueue == nil || rel.NextInQueue.AgentID != "agent-b" {
		t.Errorf("release result = %+v", rel)
	}
}

func TestAcquireRequiresFlags(t *testing.T) {
	setTestHome(t)

	if _, err := runWarden(t, "acquire", "--module", "api"); err == nil {
		t.Error("acquire without --agent succeeded")
	}
	if _, err := runWarden(t, "acquire", "--agent", "agent-a"); err == nil {
		t.Error("acquire without --module succeeded")
	}
}

func TestStatusCommand(t *testing.T) {
	setTestHome(t)

	if _, err := runWarden(t, "acquire", "--agent", "agent-a", "--module", "core"); err != nil {
		t.Fatal(err)
	}

	out, err := runWarden(t, "status")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	var snap protocol.StatusSnapshot
	decodeJSON(t, out, &snap)
	if len(snap.Locks) != 1 || snap.Locks[0].Module != "core" {
		t.Errorf("locks = %+v", snap.Locks)
	}
	if snap.ModuleAvailability["core"] {
		t.Error("core reported available while locked")
	}
	if !snap.ModuleAvailability["api"] {
		t.Error("api reported unavailable while free")
	}
}

func TestDeadlockCommand(t *testing.T) {
	setTestHome(t)

	// a holds api and waits on core; b holds core and waits on api.
	steps := [][]string{
		{"acquire", "--agent", "a", "--module", "api"},
		{"acquire", "--agent", "b", "--module", "core"},
		{"acquire", "--agent", "a", "--module", "core"},
		{"acquire", "--agent", "b", "--module", "api"},
	}
	for _, args := range steps {
		if _, err := runWarden(t, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	out, err := runWarden(t, "deadlock")
	if err != nil {
		t.Fatalf("deadlock: %v\n%s", err, out)
	}
	var res protocol.DeadlockResult
	decodeJSON(t, out, &res)
	if !res.Detected {
		t.Fatal("cycle not detected")
	}
	if len(res.InvolvedAgents) != 2 || res.InvolvedAgents[0] != "a" || res.InvolvedAgents[1] != "b" {
		t.Errorf("InvolvedAgents = %v", res.InvolvedAgents)
	}
}

func TestForceReleaseConfirmationGate(t *testing.T) {
	setTestHome(t)

	out, err := runWarden(t, "acquire", "--agent", "agent-a", "--module", "api")
	if err != nil {
		t.Fatal(err)
	}
	var acq protocol.AcquireResult
	decodeJSON(t, out, &acq)

	// --force without WARDEN_CONFIRMED=1 is refused before touching state.
	t.Setenv("WARDEN_CONFIRMED", "")
	_, err = runWarden(t, "force-release",
		"--agent", "primary", "--lock-id", acq.LockID, "--reason", "test", "--force")
	if err == nil || !strings.Contains(err.Error(), "WARDEN_CONFIRMED") {
		t.Fatalf("unconfirmed force-release: err = %v", err)
	}

	t.Setenv("WARDEN_CONFIRMED", "1")
	out, err = runWarden(t, "force-release",
		"--agent", "primary", "--lock-id", acq.LockID, "--reason", "test", "--force")
	if err != nil {
		t.Fatalf("confirmed force-release: %v\n%s", err, out)
	}
	var res protocol.ForceReleaseResult
	decodeJSON(t, out, &res)
	if !res.Success || len(res.Audit.ClearedModuleLocks) != 1 {
		t.Errorf("force-release result = %+v", res)
	}
}

func TestReleaseAllCommand(t *testing.T) {
	setTestHome(t)
	t.Setenv("WARDEN_CONFIRMED", "1")

	if _, err := runWarden(t, "acquire", "--agent", "agent-a", "--module", "api"); err != nil {
		t.Fatal(err)
	}
	if _, err := runWarden(t, "acquire", "--agent", "agent-b", "--module", "core"); err != nil {
		t.Fatal(err)
	}

	out, err := runWarden(t, "release-all", "--agent", "primary", "--reason", "reset", "--force")
	if err != nil {
		t.Fatalf("release-all: %v\n%s", err, out)
	}
	var res protocol.ForceReleaseResult
	decodeJSON(t, out, &res)
	if !res.Success || len(res.Audit.ClearedModuleLocks) != 2 {
		t.Errorf("release-all result = %+v", res)
	}

	out, err = runWarden(t, "status")
	if err != nil {
		t.Fatal(err)
	}
	var snap protocol.StatusSnapshot
	decodeJSON(t, out, &snap)
	if len(snap.Locks) != 0 {
		t.Errorf("locks after release-all = %+v", snap.Locks)
	}
}

func TestManagerWorkflowCommands(t *testing.T) {
	setTestHome(t)

	out, err := runWarden(t, "assign", "--manager", "manager-backend",
		"--task", "migrate@worker-1", "--task", "handlers@worker-2")
	if err != nil {
		t.Fatalf("assign: %v\n%s", err, out)
	}
	var assign protocol.AssignResult
	decodeJSON(t, out, &assign)
	if !assign.Success || assign.SubtaskCount != 2 || assign.WorkerCount != 2 {
		t.Fatalf("assign result = %+v", assign)
	}

	out, err = runWarden(t, "aggregate", "--manager", "manager-backend",
		"--results", `[{"worker_id":"worker-1","status":"completed"},{"worker_id":"worker-2","status":"failed","error":"timeout"}]`)
	if err != nil {
		t.Fatalf("aggregate: %v\n%s", err, out)
	}
	var agg protocol.AggregateResult
	decodeJSON(t, out, &agg)
	if agg.OverallStatus != protocol.StatusFailed || agg.ProgressPercentage != 50 {
		t.Errorf("aggregate result = %+v", agg)
	}

	out, err = runWarden(t, "handle-failure", "--manager", "manager-backend",
		"--worker", "worker-2", "--message", "timeout")
	if err != nil {
		t.Fatalf("handle-failure: %v\n%s", err, out)
	}
	var failure protocol.FailureResult
	decodeJSON(t, out, &failure)
	if failure.Action != protocol.ActionRetry {
		t.Errorf("failure action = %q, want retry", failure.Action)
	}

	out, err = runWarden(t, "escalate", "--manager", "manager-backend",
		"--reason", "repeated timeouts")
	if err != nil {
		t.Fatalf("escalate: %v\n%s", err, out)
	}
	var esc protocol.EscalateResult
	decodeJSON(t, out, &esc)
	if !esc.Success || esc.HistorySize != 1 {
		t.Errorf("escalate result = %+v", esc)
	}

	out, err = runWarden(t, "managers")
	if err != nil {
		t.Fatalf("managers: %v\n%s", err, out)
	}
	var status protocol.ManagerStatusSnapshot
	decodeJSON(t, out, &status)
	if len(status.Managers) != 1 || len(status.RecentEscalations) != 1 {
		t.Errorf("manager status = %+v", status)
	}

	out, err = runWarden(t, "complete", "--manager", "manager-backend")
	if err != nil {
		t.Fatalf("complete: %v\n%s", err, out)
	}
	var complete protocol.CompleteResult
	decodeJSON(t, out, &complete)
	if !complete.Success || len(complete.WorkersReleased) != 2 {
		t.Errorf("complete result = %+v", complete)
	}
}

func TestDomainLockCommands(t *testing.T) {
	setTestHome(t)

	out, err := runWarden(t, "acquire-manager", "--manager", "manager-backend", "--domain", "backend")
	if err != nil {
		t.Fatalf("acquire-manager: %v\n%s", err, out)
	}
	var acq protocol.DomainAcquireResult
	decodeJSON(t, out, &acq)
	if !acq.Success || acq.Type != protocol.AcquireNew {
		t.Fatalf("domain acquire = %+v", acq)
	}

	out, err = runWarden(t, "acquire-manager", "--manager", "manager-frontend", "--domain", "backend")
	if err != nil {
		t.Fatal(err)
	}
	var denied protocol.DomainAcquireResult
	decodeJSON(t, out, &denied)
	if denied.Error != protocol.ErrUnauthorizedManager {
		t.Errorf("unauthorized acquire = %+v", denied)
	}

	out, err = runWarden(t, "release-manager", "--manager", "manager-backend", "--domain", "backend")
	if err != nil {
		t.Fatal(err)
	}
	var rel protocol.DomainReleaseResult
	decodeJSON(t, out, &rel)
	if !rel.Success {
		t.Errorf("domain release = %+v", rel)
	}
}

func TestAcquireForWorkerCommand(t *testing.T) {
	setTestHome(t)

	out, err := runWarden(t, "acquire-for-worker",
		"--manager", "manager-backend", "--worker", "worker-1", "--module", "api")
	if err != nil {
		t.Fatalf("acquire-for-worker: %v\n%s", err, out)
	}
	var acq protocol.AcquireResult
	decodeJSON(t, out, &acq)
	if !acq.Success {
		t.Fatalf("delegated acquire = %+v", acq)
	}

	out, err = runWarden(t, "status")
	if err != nil {
		t.Fatal(err)
	}
	var snap protocol.StatusSnapshot
	decodeJSON(t, out, &snap)
	if len(snap.Locks) != 1 || snap.Locks[0].AgentID != "worker-1" || snap.Locks[0].ManagedBy != "manager-backend" {
		t.Errorf("delegated lock = %+v", snap.Locks)
	}

	// Primary-only modules are never delegable.
	out, err = runWarden(t, "acquire-for-worker",
		"--manager", "manager-infra", "--worker", "worker-1", "--module", "migrations")
	if err != nil {
		t.Fatal(err)
	}
	var refused protocol.AcquireResult
	decodeJSON(t, out, &refused)
	if refused.Error != protocol.ErrManagerNotAuthorized {
		t.Errorf("primary-only delegation = %+v", refused)
	}
}

func TestAuditCommand(t *testing.T) {
	setTestHome(t)

	if _, err := runWarden(t, "acquire", "--agent", "agent-a", "--module", "api"); err != nil {
		t.Fatal(err)
	}
	if _, err := runWarden(t, "release", "--agent", "agent-a", "--module", "api"); err != nil {
		t.Fatal(err)
	}

	out, err := runWarden(t, "audit", "--agent", "agent-a")
	if err != nil {
		t.Fatalf("audit: %v\n%s", err, out)
	}
	var events []map[string]any
	decodeJSON(t, out, &events)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2:\n%s", len(events), out)
	}
	// Newest first.
	if events[0]["type"] != "release" || events[1]["type"] != "acquire" {
		t.Errorf("event order = %v, %v", events[0]["type"], events[1]["type"])
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := runWarden(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.HasPrefix(out, "warden ") {
		t.Errorf("version output = %q", out)
	}
}
