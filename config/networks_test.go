package config

import (
	"errors"
	"testing"
)

func TestNetworks_BuiltinsValid(t *testing.T) {
	for _, name := range NetworkNames() {
		def, err := LookupNetwork(name)
		if err != nil {
			t.Fatalf("LookupNetwork(%s): %v", name, err)
		}
		if def.Name != name {
			t.Errorf("definition name = %q, want %q", def.Name, name)
		}
		if err := def.Validate(); err != nil {
			t.Errorf("%s should be valid: %v", name, err)
		}
	}
}

func TestLookupNetwork_Unknown(t *testing.T) {
	_, err := LookupNetwork("noNetwork")
	if !errors.Is(err, ErrUnknownNetwork) {
		t.Fatalf("error = %v, want ErrUnknownNetwork", err)
	}
	_, err = LookupNetwork("")
	if !errors.Is(err, ErrUnknownNetwork) {
		t.Fatalf("empty name error = %v, want ErrUnknownNetwork", err)
	}
}

func TestNetworks_AddressVersions(t *testing.T) {
	main, _ := LookupNetwork("mainnet")
	dev, _ := LookupNetwork("devnet")
	if main.Version != 23 {
		t.Errorf("mainnet version = %d, want 23", main.Version)
	}
	if dev.Version != 30 {
		t.Errorf("devnet version = %d, want 30", dev.Version)
	}
	if main.Slip44 != 111 {
		t.Errorf("mainnet slip44 = %d, want 111", main.Slip44)
	}
}

func TestNetworks_ReturnsCopy(t *testing.T) {
	n := Networks()
	def := n["devnet"]
	def.Name = "mutated"
	n["devnet"] = def

	again, _ := LookupNetwork("devnet")
	if again.Name != "devnet" {
		t.Error("registry should not be mutable through Networks()")
	}
}

func TestWithPeers(t *testing.T) {
	def, _ := LookupNetwork("devnet")
	custom := def.WithPeers([]string{"10.0.0.1:4003"})

	if custom.PeerSource.IsRemote() {
		t.Fatal("WithPeers should produce a literal source")
	}
	if !def.PeerSource.IsRemote() {
		t.Fatal("WithPeers mutated the original definition")
	}
	if err := custom.Validate(); err != nil {
		t.Errorf("custom definition invalid: %v", err)
	}
}

func TestNetworkDefinition_Validate(t *testing.T) {
	base, _ := LookupNetwork("devnet")

	tests := []struct {
		name   string
		mutate func(d *NetworkDefinition)
	}{
		{"bad nethash", func(d *NetworkDefinition) { d.Nethash = "abc" }},
		{"bad protocol", func(d *NetworkDefinition) { d.Protocol = "v3" }},
		{"no api port", func(d *NetworkDefinition) { d.APIPort = 0 }},
		{"port range", func(d *NetworkDefinition) { d.P2PPort = 70000 }},
		{"bad url", func(d *NetworkDefinition) { d.PeerSource = URLSource("ftp://peers") }},
		{"empty list", func(d *NetworkDefinition) { d.PeerSource = ListSource() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			tt.mutate(&d)
			if err := d.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
