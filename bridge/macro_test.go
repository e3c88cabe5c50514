// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"testing"
)

func TestMacroRecordPlayStop(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		register string
		count    int
		wantKeys string
	}{
		{"record", "record", "q", 0, "qq"},
		{"stop", "stop", "", 0, "q"},
		{"play once", "play", "q", 1, "1@q"},
		{"play many", "play", "w", 5, "5@w"},
		{"play default count", "play", "q", 0, "1@q"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bridge, fake := newTestBridge(t)
			if _, err := bridge.Macro(context.Background(), test.action, test.register, test.count); err != nil {
				t.Fatalf("Macro failed: %v", err)
			}
			if len(fake.input) != 1 || fake.input[0] != test.wantKeys {
				t.Errorf("input = %v, want [%s]", fake.input, test.wantKeys)
			}
		})
	}
}

func TestMacroValidation(t *testing.T) {
	bridge, fake := newTestBridge(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		action   string
		register string
	}{
		{"record uppercase register", "record", "Q"},
		{"record digit register", "record", "1"},
		{"record empty register", "record", ""},
		{"play invalid register", "play", `"`},
		{"unknown action", "loop", "q"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := bridge.Macro(ctx, test.action, test.register, 1)
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
	if len(fake.input) != 0 {
		t.Error("remote input was issued for invalid macro arguments")
	}
}

func TestTabActions(t *testing.T) {
	tests := []struct {
		action  string
		command string
	}{
		{"close", "tabclose"},
		{"next", "tabnext"},
		{"prev", "tabprevious"},
		{"first", "tabfirst"},
		{"last", "tablast"},
	}
	for _, test := range tests {
		t.Run(test.action, func(t *testing.T) {
			bridge, fake := newTestBridge(t)
			if _, err := bridge.Tab(context.Background(), test.action, ""); err != nil {
				t.Fatalf("Tab(%s) failed: %v", test.action, err)
			}
			if fake.execed[0] != test.command {
				t.Errorf("executed %q, want %q", fake.execed[0], test.command)
			}
		})
	}
}

func TestTabNewWithFile(t *testing.T) {
	bridge, fake := newTestBridge(t)
	if _, err := bridge.Tab(context.Background(), "new", "my file.go"); err != nil {
		t.Fatalf("Tab failed: %v", err)
	}
	if fake.execed[0] != `tabnew my\ file.go` {
		t.Errorf("executed %q, want the escaped file name", fake.execed[0])
	}
}

func TestTabList(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.execOutputs["tabs"] = "Tab page 1\n>   main.go"

	output, err := bridge.Tab(context.Background(), "list", "")
	if err != nil {
		t.Fatalf("Tab failed: %v", err)
	}
	if output != "Tab page 1\n>   main.go" {
		t.Errorf("output = %q", output)
	}
}

func TestTabUnknownAction(t *testing.T) {
	bridge, _ := newTestBridge(t)
	_, err := bridge.Tab(context.Background(), "rotate", "")
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestFoldActions(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		start   int
		end     int
		command string
	}{
		{"create", "create", 3, 10, "3,10fold"},
		{"open", "open", 0, 0, "foldopen"},
		{"close", "close", 0, 0, "foldclose"},
		{"open all", "openAll", 0, 0, "%foldopen!"},
		{"close all", "closeAll", 0, 0, "%foldclose!"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bridge, fake := newTestBridge(t)
			if _, err := bridge.Fold(context.Background(), test.action, test.start, test.end); err != nil {
				t.Fatalf("Fold failed: %v", err)
			}
			if fake.execed[0] != test.command {
				t.Errorf("executed %q, want %q", fake.execed[0], test.command)
			}
		})
	}

	t.Run("toggle sends za", func(t *testing.T) {
		bridge, fake := newTestBridge(t)
		if _, err := bridge.Fold(context.Background(), "toggle", 0, 0); err != nil {
			t.Fatalf("Fold failed: %v", err)
		}
		if len(fake.input) != 1 || fake.input[0] != "za" {
			t.Errorf("input = %v, want [za]", fake.input)
		}
	})

	t.Run("create with bad range", func(t *testing.T) {
		bridge, _ := newTestBridge(t)
		for _, r := range [][2]int{{0, 5}, {5, 4}, {-1, -1}} {
			_, err := bridge.Fold(context.Background(), "create", r[0], r[1])
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Errorf("range %v: expected ValidationError, got %v", r, err)
			}
		}
	})
}

func TestJumpActions(t *testing.T) {
	t.Run("back", func(t *testing.T) {
		bridge, fake := newTestBridge(t)
		if _, err := bridge.Jump(context.Background(), "back"); err != nil {
			t.Fatalf("Jump failed: %v", err)
		}
		if fake.input[0] != "<C-o>" {
			t.Errorf("input = %v", fake.input)
		}
	})
	t.Run("forward", func(t *testing.T) {
		bridge, fake := newTestBridge(t)
		if _, err := bridge.Jump(context.Background(), "forward"); err != nil {
			t.Fatalf("Jump failed: %v", err)
		}
		if fake.input[0] != "<C-i>" {
			t.Errorf("input = %v", fake.input)
		}
	})
	t.Run("empty list", func(t *testing.T) {
		bridge, _ := newTestBridge(t)
		output, err := bridge.Jump(context.Background(), "list")
		if err != nil {
			t.Fatalf("Jump failed: %v", err)
		}
		if output != "jump list is empty" {
			t.Errorf("output = %q", output)
		}
	})
	t.Run("unknown", func(t *testing.T) {
		bridge, _ := newTestBridge(t)
		_, err := bridge.Jump(context.Background(), "sideways")
		var valErr *ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}
