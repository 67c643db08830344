package grammar

import (
	"strings"
	"sync"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if r.grammars == nil {
		t.Fatal("Registry grammars map is nil")
	}
}

func TestRegistry_Register(t *testing.T) {
	tests := []struct {
		name    string
		grammar *Grammar
		wantErr bool
	}{
		{
			name:    "valid grammar",
			grammar: MustNew("custom", `^(?P<ip>\S+) (?P<timestamp>\d+)$`),
			wantErr: false,
		},
		{
			name:    "nil grammar",
			grammar: nil,
			wantErr: true,
		},
		{
			name:    "empty name",
			grammar: &Grammar{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(tt.grammar)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	r := NewRegistry()
	first := MustNew("custom", `^(?P<ip>\S+) (?P<timestamp>\d+)$`)
	second := MustNew("custom", `^(?P<ip>\S+)\|(?P<timestamp>\d+)$`)

	if err := r.Register(first); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(second); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, ok := r.Get("custom")
	if !ok {
		t.Fatal("Get() returned false for registered grammar")
	}
	if got != second {
		t.Error("Register() should overwrite an existing grammar")
	}
}

func TestNewBuiltinRegistry(t *testing.T) {
	r := NewBuiltinRegistry()

	for _, name := range BuiltinNames() {
		if !r.Has(name) {
			t.Errorf("builtin registry is missing %q", name)
		}
	}

	if got := len(r.List()); got != len(BuiltinNames()) {
		t.Errorf("List() returned %d names, want %d", got, len(BuiltinNames()))
	}
}

func TestRegistry_Set(t *testing.T) {
	r := NewBuiltinRegistry()

	set, err := r.Set(NCSAExtended, BunnyEdge)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("Set().Len() = %d, want 2", set.Len())
	}
	if names := set.Names(); names[0] != NCSAExtended || names[1] != BunnyEdge {
		t.Errorf("Set().Names() = %v, want priority order preserved", names)
	}

	if _, err := r.Set("nope"); err == nil || !strings.Contains(err.Error(), "unknown grammar") {
		t.Errorf("Set() with unknown name: got %v", err)
	}
	if _, err := r.Set(NCSAExtended, NCSAExtended); err == nil {
		t.Error("Set() should reject duplicate names")
	}
	if _, err := r.Set(); err == nil {
		t.Error("Set() should reject an empty selection")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewBuiltinRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.List()
			_, _ = r.Get(NCSAExtended)
		}()
		go func() {
			defer wg.Done()
			_ = r.Register(MustNew("custom", `^(?P<ip>\S+) (?P<timestamp>\d+)$`))
		}()
	}
	wg.Wait()

	if !r.Has("custom") {
		t.Error("custom grammar should be registered")
	}
}
