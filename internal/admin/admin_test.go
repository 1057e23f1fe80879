package admin

import (
	"encoding/json"
	"testing"

	"github.com/nano-kit/zenoh-remote-bridge/internal/remotestate"
)

func TestSnapshotVersionAndConfig(t *testing.T) {
	d := New(map[string]any{"listen": "0.0.0.0:10000"})

	raw, err := d.Snapshot("version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil || v != Version {
		t.Fatalf("unexpected version payload: %s err=%v", raw, err)
	}

	raw, err = d.Snapshot("config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal(raw, &cfg); err != nil || cfg["listen"] != "0.0.0.0:10000" {
		t.Fatalf("unexpected config payload: %s err=%v", raw, err)
	}
}

func TestRegisterAndSnapshotClient(t *testing.T) {
	d := New(nil)
	rec := d.Register("uuid-1", "127.0.0.1:5555",
		func() remotestate.Stats { return remotestate.Stats{Publishers: 2} },
		func() remotestate.AdminRecord {
			return remotestate.AdminRecord{Publishers: map[uint32]string{7: "demo/**"}}
		},
	)
	if rec.UUID != "uuid-1" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	raw, err := d.Snapshot("clients/uuid-1")
	if err != nil {
		t.Fatalf("clients/uuid-1: %v", err)
	}
	var cv clientView
	if err := json.Unmarshal(raw, &cv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cv.UUID != "uuid-1" || cv.Stats.Publishers != 2 {
		t.Fatalf("unexpected client view: %+v", cv)
	}
	if cv.Publishers[7] != "demo/**" {
		t.Fatalf("unexpected publisher registry: %+v", cv.Publishers)
	}

	raw, err = d.Snapshot("clients/uuid-1/stats")
	if err != nil {
		t.Fatalf("clients/uuid-1/stats: %v", err)
	}
	var stats remotestate.Stats
	if err := json.Unmarshal(raw, &stats); err != nil || stats.Publishers != 2 {
		t.Fatalf("unexpected stats payload: %s err=%v", raw, err)
	}
}

func TestSnapshotUnknownClientNotFound(t *testing.T) {
	d := New(nil)
	if _, err := d.Snapshot("clients/missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestRemoveDropsClient(t *testing.T) {
	d := New(nil)
	d.Register("uuid-1", "addr",
		func() remotestate.Stats { return remotestate.Stats{} },
		func() remotestate.AdminRecord { return remotestate.AdminRecord{} },
	)
	d.Remove("uuid-1")
	if d.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after remove, got %d", d.ClientCount())
	}
	if _, err := d.Snapshot("clients/uuid-1"); err == nil {
		t.Fatal("expected not-found after remove")
	}
}

func TestSnapshotAllClients(t *testing.T) {
	d := New(nil)
	noRecord := func() remotestate.AdminRecord { return remotestate.AdminRecord{} }
	d.Register("a", "addr-a", func() remotestate.Stats { return remotestate.Stats{} }, noRecord)
	d.Register("b", "addr-b", func() remotestate.Stats { return remotestate.Stats{} }, noRecord)

	raw, err := d.Snapshot("clients")
	if err != nil {
		t.Fatalf("clients: %v", err)
	}
	var views []clientView
	if err := json.Unmarshal(raw, &views); err != nil || len(views) != 2 {
		t.Fatalf("unexpected clients payload: %s err=%v", raw, err)
	}
}
