package vaultcli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/warpvault/vaultmcp/internal/security"
	"github.com/warpvault/vaultmcp/internal/tool"
)

// catalogTool is a declarative CLI tool: a schema plus a function that
// turns validated arguments into a guarded Command. All catalog tools
// share the build → run → normalize pipeline.
type catalogTool struct {
	name     string
	desc     string
	schema   json.RawMessage
	fallback string
	build    func(args map[string]any) (Command, error)
	runner   *Runner
}

func (t catalogTool) Name() string            { return t.name }
func (t catalogTool) Description() string     { return t.desc }
func (t catalogTool) Schema() json.RawMessage { return t.schema }

func (t catalogTool) Execute(ctx context.Context, args map[string]any) tool.Output {
	t.runner.audit.Log(security.AuditEvent{
		Type:    security.EventToolCall,
		Surface: security.SurfaceCLI,
		Tool:    t.name,
	})

	out, detail := t.run(ctx, args)

	t.runner.audit.Log(security.AuditEvent{
		Type:     security.EventToolResult,
		Surface:  security.SurfaceCLI,
		Tool:     t.name,
		Detail:   detail,
		Metadata: map[string]string{"outcome": out.Outcome()},
	})
	return out
}

func (t catalogTool) run(ctx context.Context, args map[string]any) (tool.Output, string) {
	cmd, err := t.build(args)
	if err != nil {
		return tool.Errorf("%s", err), ""
	}
	res := t.runner.Run(ctx, cmd)
	return tool.FromExec(res.Output, res.ErrorOutput, t.fallback), cmd.String()
}

// listTypes are the object types accepted by vault_list.
var listTypes = []string{"items", "folders", "collections", "organizations", "org-members"}

// getObjects are the object types accepted by vault_get.
var getObjects = []string{
	"item", "username", "password", "uri", "totp", "notes",
	"exposed", "folder", "collection", "organization", "template", "fingerprint",
}

// deleteObjects are the object types accepted by vault_delete.
var deleteObjects = []string{"item", "attachment", "folder", "org-collection"}

// Tools returns the vault CLI tool catalog bound to the given runner.
func Tools(r *Runner) []tool.Tool {
	return []tool.Tool{
		catalogTool{
			name:     "vault_lock",
			desc:     "Lock the vault and destroy the active session key.",
			schema:   tool.ObjectSchema(nil, nil),
			fallback: "vault locked",
			runner:   r,
			build: func(map[string]any) (Command, error) {
				return Build("lock")
			},
		},
		catalogTool{
			name: "vault_unlock",
			desc: "Unlock the vault with the master password and return a session key.",
			schema: tool.ObjectSchema(map[string]string{
				"password": "string",
			}, []string{"password"}),
			fallback: "vault unlocked",
			runner:   r,
			build: func(args map[string]any) (Command, error) {
				password, err := tool.StringArg(args, "password")
				if err != nil {
					return Command{}, err
				}
				return Build("unlock", password, "--raw")
			},
		},
		catalogTool{
			name:     "vault_sync",
			desc:     "Pull the latest vault data from the server.",
			schema:   tool.ObjectSchema(nil, nil),
			fallback: "sync complete",
			runner:   r,
			build: func(map[string]any) (Command, error) {
				return Build("sync")
			},
		},
		catalogTool{
			name:     "vault_status",
			desc:     "Show vault login and sync status.",
			schema:   tool.ObjectSchema(nil, nil),
			fallback: "status unavailable",
			runner:   r,
			build: func(map[string]any) (Command, error) {
				return Build("status")
			},
		},
		catalogTool{
			name: "vault_list",
			desc: "List vault objects, optionally filtered by a search term.",
			schema: tool.ObjectSchema(map[string]string{
				"type":   "string",
				"search": "string",
			}, []string{"type"}),
			fallback: "[]",
			runner:   r,
			build: func(args map[string]any) (Command, error) {
				typ, err := tool.StringArg(args, "type")
				if err != nil {
					return Command{}, err
				}
				if !slices.Contains(listTypes, typ) {
					return Command{}, fmt.Errorf("invalid list type: %s", typ)
				}
				cliArgs := []string{typ}
				if search, ok := tool.OptString(args, "search"); ok {
					cliArgs = append(cliArgs, "--search", search)
				}
				return Build("list", cliArgs...)
			},
		},
		catalogTool{
			name: "vault_get",
			desc: "Get a single vault object or item field by id or search term.",
			schema: tool.ObjectSchema(map[string]string{
				"object": "string",
				"id":     "string",
			}, []string{"object", "id"}),
			fallback: "not found",
			runner:   r,
			build: func(args map[string]any) (Command, error) {
				object, err := tool.StringArg(args, "object")
				if err != nil {
					return Command{}, err
				}
				if !slices.Contains(getObjects, object) {
					return Command{}, fmt.Errorf("invalid get object: %s", object)
				}
				id, err := tool.StringArg(args, "id")
				if err != nil {
					return Command{}, err
				}
				return Build("get", object, id)
			},
		},
		catalogTool{
			name: "vault_generate",
			desc: "Generate a password or passphrase.",
			schema: tool.ObjectSchema(map[string]string{
				"length":     "integer",
				"uppercase":  "boolean",
				"lowercase":  "boolean",
				"number":     "boolean",
				"special":    "boolean",
				"passphrase": "boolean",
				"words":      "integer",
				"separator":  "string",
			}, nil),
			fallback: "generation failed",
			runner:   r,
			build:    buildGenerate,
		},
		catalogTool{
			name: "vault_create_folder",
			desc: "Create a folder.",
			schema: tool.ObjectSchema(map[string]string{
				"name": "string",
			}, []string{"name"}),
			fallback: "folder created",
			runner:   r,
			build: func(args map[string]any) (Command, error) {
				name, err := tool.StringArg(args, "name")
				if err != nil {
					return Command{}, err
				}
				payload, err := encodePayload(map[string]any{"name": name})
				if err != nil {
					return Command{}, err
				}
				return Build("create", "folder", payload)
			},
		},
		catalogTool{
			name: "vault_create_item",
			desc: "Create a login item with optional credentials and URI.",
			schema: tool.ObjectSchema(map[string]string{
				"name":     "string",
				"username": "string",
				"password": "string",
				"uri":      "string",
				"notes":    "string",
				"totp":     "string",
			}, []string{"name"}),
			fallback: "item created",
			runner:   r,
			build:    buildCreateItem,
		},
		catalogTool{
			name: "vault_edit_folder",
			desc: "Rename a folder.",
			schema: tool.ObjectSchema(map[string]string{
				"id":   "string",
				"name": "string",
			}, []string{"id", "name"}),
			fallback: "folder updated",
			runner:   r,
			build: func(args map[string]any) (Command, error) {
				id, err := requireUUIDArg(args, "id")
				if err != nil {
					return Command{}, err
				}
				name, err := tool.StringArg(args, "name")
				if err != nil {
					return Command{}, err
				}
				payload, err := encodePayload(map[string]any{"name": name})
				if err != nil {
					return Command{}, err
				}
				return Build("edit", "folder", id, payload)
			},
		},
		catalogTool{
			name: "vault_edit_item",
			desc: "Replace a login item's fields.",
			schema: tool.ObjectSchema(map[string]string{
				"id":       "string",
				"name":     "string",
				"username": "string",
				"password": "string",
				"uri":      "string",
				"notes":    "string",
				"totp":     "string",
			}, []string{"id", "name"}),
			fallback: "item updated",
			runner:   r,
			build:    buildEditItem,
		},
		catalogTool{
			name: "vault_delete",
			desc: "Move a vault object to trash, or purge it permanently.",
			schema: tool.ObjectSchema(map[string]string{
				"object":    "string",
				"id":        "string",
				"permanent": "boolean",
			}, []string{"object", "id"}),
			fallback: "deleted",
			runner:   r,
			build: func(args map[string]any) (Command, error) {
				object, err := tool.StringArg(args, "object")
				if err != nil {
					return Command{}, err
				}
				if !slices.Contains(deleteObjects, object) {
					return Command{}, fmt.Errorf("invalid delete object: %s", object)
				}
				id, err := requireUUIDArg(args, "id")
				if err != nil {
					return Command{}, err
				}
				cliArgs := []string{object, id}
				if permanent, _ := tool.OptBool(args, "permanent"); permanent {
					cliArgs = append(cliArgs, "--permanent")
				}
				return Build("delete", cliArgs...)
			},
		},
		catalogTool{
			name: "vault_restore",
			desc: "Restore a trashed item.",
			schema: tool.ObjectSchema(map[string]string{
				"id": "string",
			}, []string{"id"}),
			fallback: "restored",
			runner:   r,
			build: func(args map[string]any) (Command, error) {
				id, err := requireUUIDArg(args, "id")
				if err != nil {
					return Command{}, err
				}
				return Build("restore", "item", id)
			},
		},
		catalogTool{
			name: "vault_move",
			desc: "Move an item into an organization's collections.",
			schema: tool.ObjectSchema(map[string]string{
				"item_id":         "string",
				"organization_id": "string",
				"collection_ids":  "array",
			}, []string{"item_id", "organization_id", "collection_ids"}),
			fallback: "moved",
			runner:   r,
			build:    buildMove,
		},
		catalogTool{
			name: "vault_confirm",
			desc: "Confirm an invited organization member.",
			schema: tool.ObjectSchema(map[string]string{
				"organization_id": "string",
				"member_id":       "string",
			}, []string{"organization_id", "member_id"}),
			fallback: "member confirmed",
			runner:   r,
			build: func(args map[string]any) (Command, error) {
				orgID, err := requireUUIDArg(args, "organization_id")
				if err != nil {
					return Command{}, err
				}
				memberID, err := requireUUIDArg(args, "member_id")
				if err != nil {
					return Command{}, err
				}
				return Build("confirm", "org-member", memberID, "--organizationid", orgID)
			},
		},
		catalogTool{
			name: "vault_send_create",
			desc: "Create a text Send with an optional deletion date.",
			schema: tool.ObjectSchema(map[string]string{
				"name":          "string",
				"text":          "string",
				"hidden":        "boolean",
				"deletion_date": "string",
			}, []string{"name", "text"}),
			fallback: "send created",
			runner:   r,
			build:    buildSendCreate,
		},
		catalogTool{
			name:     "vault_send_list",
			desc:     "List Sends owned by the current account.",
			schema:   tool.ObjectSchema(nil, nil),
			fallback: "[]",
			runner:   r,
			build: func(map[string]any) (Command, error) {
				return Build("send", "list")
			},
		},
		catalogTool{
			name: "vault_send_delete",
			desc: "Delete a Send.",
			schema: tool.ObjectSchema(map[string]string{
				"id": "string",
			}, []string{"id"}),
			fallback: "send deleted",
			runner:   r,
			build: func(args map[string]any) (Command, error) {
				id, err := requireUUIDArg(args, "id")
				if err != nil {
					return Command{}, err
				}
				return Build("send", "delete", id)
			},
		},
		catalogTool{
			name: "vault_command",
			desc: "Run an allowlisted vault CLI command from a free-text string. The string is sanitized, split on whitespace, and the leading token must be a permitted verb.",
			schema: tool.ObjectSchema(map[string]string{
				"command": "string",
			}, []string{"command"}),
			fallback: "operation completed successfully",
			runner:   r,
			build: func(args map[string]any) (Command, error) {
				raw, err := tool.StringArg(args, "command")
				if err != nil {
					return Command{}, err
				}
				return Parse(raw)
			},
		},
	}
}

func buildGenerate(args map[string]any) (Command, error) {
	var cliArgs []string
	if passphrase, _ := tool.OptBool(args, "passphrase"); passphrase {
		cliArgs = append(cliArgs, "--passphrase")
		if words, ok := tool.OptInt(args, "words"); ok {
			cliArgs = append(cliArgs, "--words", strconv.Itoa(words))
		}
		if sep, ok := tool.OptString(args, "separator"); ok {
			cliArgs = append(cliArgs, "--separator", sep)
		}
		return Build("generate", cliArgs...)
	}

	if length, ok := tool.OptInt(args, "length"); ok {
		if length < 5 || length > 128 {
			return Command{}, fmt.Errorf("length must be between 5 and 128, got %d", length)
		}
		cliArgs = append(cliArgs, "--length", strconv.Itoa(length))
	}
	for _, flag := range []struct {
		key  string
		flag string
	}{
		{"uppercase", "--uppercase"},
		{"lowercase", "--lowercase"},
		{"number", "--number"},
		{"special", "--special"},
	} {
		if on, _ := tool.OptBool(args, flag.key); on {
			cliArgs = append(cliArgs, flag.flag)
		}
	}
	return Build("generate", cliArgs...)
}

func buildCreateItem(args map[string]any) (Command, error) {
	item, err := loginItem(args)
	if err != nil {
		return Command{}, err
	}
	payload, err := encodePayload(item)
	if err != nil {
		return Command{}, err
	}
	return Build("create", "item", payload)
}

// loginItem assembles the JSON shape shared by item create and edit.
func loginItem(args map[string]any) (map[string]any, error) {
	name, err := tool.StringArg(args, "name")
	if err != nil {
		return nil, err
	}

	login := map[string]any{}
	if username, ok := tool.OptString(args, "username"); ok {
		login["username"] = username
	}
	if password, ok := tool.OptString(args, "password"); ok {
		login["password"] = password
	}
	if totp, ok := tool.OptString(args, "totp"); ok {
		login["totp"] = totp
	}
	if uri, ok := tool.OptString(args, "uri"); ok {
		login["uris"] = []any{map[string]any{"uri": uri}}
	}

	item := map[string]any{
		"type":  1, // login
		"name":  name,
		"login": login,
	}
	if notes, ok := tool.OptString(args, "notes"); ok {
		item["notes"] = notes
	}
	return item, nil
}

func buildEditItem(args map[string]any) (Command, error) {
	id, err := requireUUIDArg(args, "id")
	if err != nil {
		return Command{}, err
	}

	item, err := loginItem(args)
	if err != nil {
		return Command{}, err
	}
	payload, err := encodePayload(item)
	if err != nil {
		return Command{}, err
	}
	return Build("edit", "item", id, payload)
}

func buildSendCreate(args map[string]any) (Command, error) {
	name, err := tool.StringArg(args, "name")
	if err != nil {
		return Command{}, err
	}
	text, err := tool.StringArg(args, "text")
	if err != nil {
		return Command{}, err
	}
	hidden, _ := tool.OptBool(args, "hidden")

	send := map[string]any{
		"type": 0, // text
		"name": name,
		"text": map[string]any{"text": text, "hidden": hidden},
	}
	if deletion, ok := tool.OptString(args, "deletion_date"); ok {
		if _, err := time.Parse(time.RFC3339, deletion); err != nil {
			return Command{}, fmt.Errorf("deletion_date must be RFC 3339, got %q", deletion)
		}
		send["deletionDate"] = deletion
	}

	payload, err := encodePayload(send)
	if err != nil {
		return Command{}, err
	}
	return Build("send", "create", payload)
}

func buildMove(args map[string]any) (Command, error) {
	itemID, err := requireUUIDArg(args, "item_id")
	if err != nil {
		return Command{}, err
	}
	orgID, err := requireUUIDArg(args, "organization_id")
	if err != nil {
		return Command{}, err
	}

	raw, ok := args["collection_ids"].([]any)
	if !ok || len(raw) == 0 {
		return Command{}, fmt.Errorf("missing required parameter: collection_ids")
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return Command{}, fmt.Errorf("collection_ids must be an array of strings")
		}
		if _, err := uuid.Parse(s); err != nil {
			return Command{}, fmt.Errorf("invalid collection id: %s", s)
		}
		ids = append(ids, s)
	}

	payload, err := encodePayload(ids)
	if err != nil {
		return Command{}, err
	}
	return Build("move", itemID, orgID, payload)
}

// encodePayload marshals v and base64-encodes it, the envelope the
// vault CLI expects for create/edit/move payloads. The JSON+base64
// wrapping keeps arbitrary field values (passwords included) intact
// while the resulting token stays structurally inert in the argv.
func encodePayload(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// requireUUIDArg extracts a required argument that must parse as a UUID.
func requireUUIDArg(args map[string]any, key string) (string, error) {
	s, err := tool.StringArg(args, key)
	if err != nil {
		return "", err
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("parameter %s must be a UUID", key)
	}
	return s, nil
}
