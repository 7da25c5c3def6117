package typeid

import (
	"strings"
	"testing"
)

func TestNewAndValidate(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"user", NewUserID, PrefixUser},
		{"drawing", NewDrawingID, PrefixDrawing},
		{"snapshot", NewSnapshotID, PrefixSnapshot},
		{"op", NewOpID, PrefixOp},
		{"shape", NewShapeID, PrefixShape},
		{"client", NewClientID, PrefixClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.gen()
			if !strings.HasPrefix(id, tt.prefix+"_") {
				t.Errorf("id %q lacks prefix %q", id, tt.prefix)
			}
			if err := Validate(id, tt.prefix); err != nil {
				t.Errorf("Validate(%q): %v", id, err)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	if err := Validate(NewShapeID(), PrefixDrawing); err == nil {
		t.Error("wrong prefix should fail")
	}
	if err := Validate("garbage", PrefixShape); err == nil {
		t.Error("malformed id should fail")
	}
}
