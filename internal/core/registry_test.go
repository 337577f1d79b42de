package core

import (
	"errors"
	"testing"
)

func registerTestFeatures(t *testing.T) {
	t.Helper()
	Clear()
	t.Cleanup(Clear)

	Register(Feature{Key: "wallet", Group: "Finance"})
	Register(Feature{Key: "addresses", Group: "Customers", Label: "Addresses"})
	Register(Feature{Key: "affiliate_payouts", Group: "Finance"})
}

func TestRegistry_GetAndLookup(t *testing.T) {
	registerTestFeatures(t)

	f, ok := Get("wallet")
	if !ok {
		t.Fatal("Get(wallet) not found")
	}
	if f.Label != "wallet" {
		t.Errorf("empty label should default to key, got %q", f.Label)
	}

	if _, err := Lookup("nope"); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("expected ErrUnknownFeature, got %v", err)
	}
}

func TestRegistry_Ordering(t *testing.T) {
	registerTestFeatures(t)

	all := All()
	want := []string{"addresses", "affiliate_payouts", "wallet"}
	for i, key := range want {
		if all[i].Key != key {
			t.Errorf("All()[%d] = %q, want %q", i, all[i].Key, key)
		}
	}

	groups := Groups()
	if len(groups) != 2 || groups[0] != "Customers" || groups[1] != "Finance" {
		t.Errorf("Groups() = %v", groups)
	}

	finance := ByGroup("Finance")
	if len(finance) != 2 || finance[0].Key != "affiliate_payouts" {
		t.Errorf("ByGroup(Finance) = %v", finance)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	registerTestFeatures(t)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register(Feature{Key: "wallet"})
}
