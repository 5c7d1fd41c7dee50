package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeTool struct {
	name   string
	output Output
}

func (t fakeTool) Name() string            { return t.name }
func (t fakeTool) Description() string     { return "fake tool" }
func (t fakeTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (t fakeTool) Execute(context.Context, map[string]any) Output {
	return t.output
}

func TestRegistryRegister_EmptyName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(fakeTool{name: "  "}); !errors.Is(err, ErrEmptyToolName) {
		t.Fatalf("expected ErrEmptyToolName, got %v", err)
	}
}

func TestRegistryRegister_Duplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(fakeTool{name: "vault_status"}); err != nil {
		t.Fatalf("unexpected first register error: %v", err)
	}
	if err := r.Register(fakeTool{name: "vault_status"}); !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("expected ErrDuplicateTool, got %v", err)
	}
}

func TestRegistryGet_NotFound(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if _, err := r.Get("nope"); !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRegistryNames_Sorted(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.RegisterAll(
		fakeTool{name: "vault_sync"},
		fakeTool{name: "org_list_members"},
		fakeTool{name: "vault_get"},
	); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}

	names := r.Names()
	want := []string{"org_list_members", "vault_get", "vault_sync"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistrySchemas(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(fakeTool{name: "vault_lock"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	schemas := r.Schemas()
	if len(schemas) != 1 {
		t.Fatalf("len(schemas) = %d, want 1", len(schemas))
	}
	if schemas[0].Name != "vault_lock" {
		t.Errorf("schema name = %q", schemas[0].Name)
	}
	if string(schemas[0].Schema) != `{"type":"object"}` {
		t.Errorf("schema = %s", schemas[0].Schema)
	}
}
