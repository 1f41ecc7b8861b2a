package vnet

import (
	"testing"

	"github.com/relaylogic/relaysim/internal/signal"
)

func TestApplyReportsChange(t *testing.T) {
	v := New("v1111111", "pg111111", "t1", "t2")
	if changed := v.Apply(signal.Float); changed {
		t.Fatal("Apply(Float) from initial Float: want no change")
	}
	if changed := v.Apply(signal.High); !changed {
		t.Fatal("Apply(High): want change")
	}
	if v.Dirty() {
		t.Fatal("Apply should clear dirty")
	}
	if v.Toggles() != 1 {
		t.Fatalf("Toggles() = %d, want 1", v.Toggles())
	}
}

func TestSetOrdering(t *testing.T) {
	s := NewSet()
	s.Add(New("bbbbbbbb", "pg"))
	s.Add(New("aaaaaaaa", "pg"))
	all := s.All()
	if len(all) != 2 || all[0].ID != "aaaaaaaa" || all[1].ID != "bbbbbbbb" {
		t.Fatalf("All() not sorted: %v", all)
	}
}

func TestLinkAndBridgeMembership(t *testing.T) {
	v := New("v1111111", "pg111111")
	v.AddLinkName("POWER")
	v.AddLinkName("POWER")
	if got := v.LinkNames(); len(got) != 1 || got[0] != "POWER" {
		t.Fatalf("LinkNames() = %v", got)
	}
	v.AddBridge("br111111")
	if got := v.BridgeIDs(); len(got) != 1 || got[0] != "br111111" {
		t.Fatalf("BridgeIDs() = %v", got)
	}
	v.RemoveBridge("br111111")
	if got := v.BridgeIDs(); len(got) != 0 {
		t.Fatalf("BridgeIDs() after remove = %v", got)
	}
}
