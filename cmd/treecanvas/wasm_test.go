package main

import (
	"path/filepath"
	"testing"
)

func TestWASMBuilder_PackagePath(t *testing.T) {
	abs, err := filepath.Abs(filepath.Join("app", "client"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		dir  string
		want string
	}{
		{"app/client", "./app/client"},
		{"./app/client", "./app/client"},
		{"../other/client", "./../other/client"},
		{abs, abs},
	}
	for _, tt := range tests {
		b := newWASMBuilder(tt.dir, "out.wasm", nil)
		if got := b.packagePath(); got != tt.want {
			t.Errorf("packagePath(%q): expected %q, got %q", tt.dir, tt.want, got)
		}
	}
}
