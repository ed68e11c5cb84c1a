package wire

import "testing"

func TestTypeOfKnown(t *testing.T) {
	tt, err := TypeOf('D')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tt.Name != "DataRow" {
		t.Errorf("Name = %q, want DataRow", tt.Name)
	}
	if tt.String() != "DataRow" {
		t.Errorf("String() = %q, want DataRow", tt.String())
	}
}

func TestTypeOfUnknown(t *testing.T) {
	_, err := TypeOf(0x00)
	if err == nil {
		t.Fatal("expected error for unregistered type byte")
	}
	if err.Kind != KindUnknownMessageType {
		t.Errorf("Kind = %v, want KindUnknownMessageType", err.Kind)
	}
}
