package orgapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/warpvault/vaultmcp/internal/security"
	"github.com/warpvault/vaultmcp/internal/tool"
)

// apiTool is a declarative API tool: a schema plus functions that turn
// validated arguments into an allowlisted endpoint and an optional
// body. All catalog tools share the build → request → normalize
// pipeline; the endpoint guard inside Client.Do remains the final gate.
type apiTool struct {
	name     string
	desc     string
	schema   json.RawMessage
	fallback string
	method   string
	path     func(args map[string]any) (string, error)
	body     func(args map[string]any) (map[string]any, error)
	client   *Client
}

func (t apiTool) Name() string            { return t.name }
func (t apiTool) Description() string     { return t.desc }
func (t apiTool) Schema() json.RawMessage { return t.schema }

func (t apiTool) Execute(ctx context.Context, args map[string]any) tool.Output {
	t.client.audit.Log(security.AuditEvent{
		Type:    security.EventToolCall,
		Surface: security.SurfaceAPI,
		Tool:    t.name,
	})

	out, detail := t.run(ctx, args)

	t.client.audit.Log(security.AuditEvent{
		Type:     security.EventToolResult,
		Surface:  security.SurfaceAPI,
		Tool:     t.name,
		Detail:   detail,
		Metadata: map[string]string{"outcome": out.Outcome()},
	})
	return out
}

func (t apiTool) run(ctx context.Context, args map[string]any) (tool.Output, string) {
	endpoint, err := t.path(args)
	if err != nil {
		return tool.Errorf("%s", err), ""
	}
	var body map[string]any
	if t.body != nil {
		body, err = t.body(args)
		if err != nil {
			return tool.Errorf("%s", err), ""
		}
	}
	res := t.client.Do(ctx, t.method, endpoint, body)
	return tool.FromAPI(res.Data, res.ErrorMessage, t.fallback), t.method + " " + endpoint
}

// staticPath returns a path builder for endpoints without identifiers.
func staticPath(p string) func(map[string]any) (string, error) {
	return func(map[string]any) (string, error) { return p, nil }
}

// idPath returns a path builder that splices a UUID argument between
// prefix and suffix.
func idPath(prefix, key, suffix string) func(map[string]any) (string, error) {
	return func(args map[string]any) (string, error) {
		id, err := requireUUID(args, key)
		if err != nil {
			return "", err
		}
		return prefix + "/" + id + suffix, nil
	}
}

// requireUUID extracts a required argument that must parse as a UUID.
func requireUUID(args map[string]any, key string) (string, error) {
	s, err := tool.StringArg(args, key)
	if err != nil {
		return "", err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parameter %s must be a UUID", key)
	}
	return parsed.String(), nil
}

// Tools returns the organization API tool catalog bound to the given
// client.
func Tools(c *Client) []tool.Tool {
	return []tool.Tool{
		apiTool{
			name:     "org_list_collections",
			desc:     "List the organization's collections.",
			schema:   tool.ObjectSchema(nil, nil),
			fallback: "no collections",
			method:   http.MethodGet,
			path:     staticPath("/public/collections"),
			client:   c,
		},
		apiTool{
			name:     "org_get_collection",
			desc:     "Get a collection by id.",
			schema:   tool.ObjectSchema(map[string]string{"id": "string"}, []string{"id"}),
			fallback: "collection not found",
			method:   http.MethodGet,
			path:     idPath("/public/collections", "id", ""),
			client:   c,
		},
		apiTool{
			name: "org_update_collection",
			desc: "Update a collection's group associations and external id.",
			schema: tool.ObjectSchema(map[string]string{
				"id":          "string",
				"external_id": "string",
				"groups":      "array",
			}, []string{"id"}),
			fallback: "collection updated",
			method:   http.MethodPut,
			path:     idPath("/public/collections", "id", ""),
			body: func(args map[string]any) (map[string]any, error) {
				body := map[string]any{}
				if externalID, ok := tool.OptString(args, "external_id"); ok {
					body["externalId"] = externalID
				}
				if groups, ok := args["groups"].([]any); ok {
					body["groups"] = groups
				}
				return body, nil
			},
			client: c,
		},
		apiTool{
			name:     "org_delete_collection",
			desc:     "Delete a collection.",
			schema:   tool.ObjectSchema(map[string]string{"id": "string"}, []string{"id"}),
			fallback: "collection deleted",
			method:   http.MethodDelete,
			path:     idPath("/public/collections", "id", ""),
			client:   c,
		},
		apiTool{
			name:     "org_list_members",
			desc:     "List the organization's members.",
			schema:   tool.ObjectSchema(nil, nil),
			fallback: "no members",
			method:   http.MethodGet,
			path:     staticPath("/public/members"),
			client:   c,
		},
		apiTool{
			name:     "org_get_member",
			desc:     "Get a member by id.",
			schema:   tool.ObjectSchema(map[string]string{"id": "string"}, []string{"id"}),
			fallback: "member not found",
			method:   http.MethodGet,
			path:     idPath("/public/members", "id", ""),
			client:   c,
		},
		apiTool{
			name: "org_invite_member",
			desc: "Invite a new member by email.",
			schema: tool.ObjectSchema(map[string]string{
				"email":       "string",
				"type":        "integer",
				"external_id": "string",
				"collections": "array",
			}, []string{"email", "type"}),
			fallback: "member invited",
			method:   http.MethodPost,
			path:     staticPath("/public/members"),
			body:     memberBody,
			client:   c,
		},
		apiTool{
			name: "org_update_member",
			desc: "Update a member's role and collection access.",
			schema: tool.ObjectSchema(map[string]string{
				"id":          "string",
				"type":        "integer",
				"external_id": "string",
				"collections": "array",
			}, []string{"id", "type"}),
			fallback: "member updated",
			method:   http.MethodPut,
			path:     idPath("/public/members", "id", ""),
			body:     memberBody,
			client:   c,
		},
		apiTool{
			name:     "org_remove_member",
			desc:     "Remove a member from the organization.",
			schema:   tool.ObjectSchema(map[string]string{"id": "string"}, []string{"id"}),
			fallback: "member removed",
			method:   http.MethodDelete,
			path:     idPath("/public/members", "id", ""),
			client:   c,
		},
		apiTool{
			name:     "org_get_member_groups",
			desc:     "List the group ids a member belongs to.",
			schema:   tool.ObjectSchema(map[string]string{"id": "string"}, []string{"id"}),
			fallback: "[]",
			method:   http.MethodGet,
			path:     idPath("/public/members", "id", "/group-ids"),
			client:   c,
		},
		apiTool{
			name:     "org_reinvite_member",
			desc:     "Re-send a member's invitation email.",
			schema:   tool.ObjectSchema(map[string]string{"id": "string"}, []string{"id"}),
			fallback: "invitation re-sent",
			method:   http.MethodPost,
			path:     idPath("/public/members", "id", "/reinvite"),
			client:   c,
		},
		apiTool{
			name:     "org_list_groups",
			desc:     "List the organization's groups.",
			schema:   tool.ObjectSchema(nil, nil),
			fallback: "no groups",
			method:   http.MethodGet,
			path:     staticPath("/public/groups"),
			client:   c,
		},
		apiTool{
			name:     "org_get_group",
			desc:     "Get a group by id.",
			schema:   tool.ObjectSchema(map[string]string{"id": "string"}, []string{"id"}),
			fallback: "group not found",
			method:   http.MethodGet,
			path:     idPath("/public/groups", "id", ""),
			client:   c,
		},
		apiTool{
			name:     "org_get_group_members",
			desc:     "List the member ids in a group.",
			schema:   tool.ObjectSchema(map[string]string{"id": "string"}, []string{"id"}),
			fallback: "[]",
			method:   http.MethodGet,
			path:     idPath("/public/groups", "id", "/member-ids"),
			client:   c,
		},
		apiTool{
			name:     "org_list_policies",
			desc:     "List the organization's policies.",
			schema:   tool.ObjectSchema(nil, nil),
			fallback: "no policies",
			method:   http.MethodGet,
			path:     staticPath("/public/policies"),
			client:   c,
		},
		apiTool{
			name:     "org_get_policy",
			desc:     "Get a policy by its numeric type (0-15).",
			schema:   tool.ObjectSchema(map[string]string{"type": "integer"}, []string{"type"}),
			fallback: "policy not found",
			method:   http.MethodGet,
			path: func(args map[string]any) (string, error) {
				typ, ok := tool.OptInt(args, "type")
				if !ok {
					return "", fmt.Errorf("missing required parameter: type")
				}
				if typ < 0 || typ > 15 {
					return "", fmt.Errorf("policy type must be between 0 and 15, got %d", typ)
				}
				return fmt.Sprintf("/public/policies/%d", typ), nil
			},
			client: c,
		},
		apiTool{
			name: "org_list_events",
			desc: "List organization event logs, optionally filtered by time range or actor.",
			schema: tool.ObjectSchema(map[string]string{
				"start":          "string",
				"end":            "string",
				"acting_user_id": "string",
				"item_id":        "string",
			}, nil),
			fallback: "no events",
			method:   http.MethodGet,
			path:     eventsPath,
			client:   c,
		},
		apiTool{
			name:     "org_get_subscription",
			desc:     "Get the organization's subscription details.",
			schema:   tool.ObjectSchema(nil, nil),
			fallback: "no subscription",
			method:   http.MethodGet,
			path:     staticPath("/public/organization/subscription"),
			client:   c,
		},
		apiTool{
			name: "org_import",
			desc: "Import groups and members into the organization.",
			schema: tool.ObjectSchema(map[string]string{
				"groups":             "array",
				"members":            "array",
				"overwrite_existing": "boolean",
			}, nil),
			fallback: "import complete",
			method:   http.MethodPost,
			path:     staticPath("/public/organization/import"),
			body: func(args map[string]any) (map[string]any, error) {
				body := map[string]any{"largeImport": false}
				if groups, ok := args["groups"].([]any); ok {
					body["groups"] = groups
				}
				if members, ok := args["members"].([]any); ok {
					body["members"] = members
				}
				overwrite, _ := tool.OptBool(args, "overwrite_existing")
				body["overwriteExisting"] = overwrite
				return body, nil
			},
			client: c,
		},
	}
}

// memberBody builds the shared invite/update member body.
func memberBody(args map[string]any) (map[string]any, error) {
	typ, ok := tool.OptInt(args, "type")
	if !ok {
		return nil, fmt.Errorf("missing required parameter: type")
	}
	if typ < 0 || typ > 4 {
		return nil, fmt.Errorf("member type must be between 0 and 4, got %d", typ)
	}

	body := map[string]any{"type": typ}
	if email, ok := tool.OptString(args, "email"); ok {
		body["email"] = email
	}
	if externalID, ok := tool.OptString(args, "external_id"); ok {
		body["externalId"] = externalID
	}
	if collections, ok := args["collections"].([]any); ok {
		body["collections"] = collections
	}
	return body, nil
}

// eventsPath builds the events endpoint with its optional filters; it
// is the only endpoint shape that admits a query string.
func eventsPath(args map[string]any) (string, error) {
	query := url.Values{}
	if start, ok := tool.OptString(args, "start"); ok {
		query.Set("start", start)
	}
	if end, ok := tool.OptString(args, "end"); ok {
		query.Set("end", end)
	}
	if actingUserID, ok := tool.OptString(args, "acting_user_id"); ok {
		if _, err := uuid.Parse(actingUserID); err != nil {
			return "", fmt.Errorf("parameter acting_user_id must be a UUID")
		}
		query.Set("actingUserId", actingUserID)
	}
	if itemID, ok := tool.OptString(args, "item_id"); ok {
		if _, err := uuid.Parse(itemID); err != nil {
			return "", fmt.Errorf("parameter item_id must be a UUID")
		}
		query.Set("itemId", itemID)
	}

	endpoint := "/public/events"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	return endpoint, nil
}
