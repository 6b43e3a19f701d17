package adminapi

import (
	"dotdo/pkg/openapi"
)

func buildAPIDocs() *openapi.Registry {
	reg := openapi.NewRegistry()
	ok := map[string]any{"200": map[string]any{"description": "OK"}}
	body := map[string]any{
		"required": true,
		"content": map[string]any{"application/json": map[string]any{"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"displayName": map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
				"glow":        map[string]any{"type": "string", "enum": []string{"gold", "red", "green", "blue", "purple"}},
			},
		}}},
	}
	reg.Register(openapi.Operation{Method: "GET", Path: "/admin/domains", Summary: "List custom domains", Tags: []string{"domains"}, Responses: ok})
	reg.Register(openapi.Operation{Method: "GET", Path: "/admin/domains/{domain}", Summary: "Get a custom domain", Tags: []string{"domains"}, Responses: ok})
	reg.Register(openapi.Operation{Method: "PUT", Path: "/admin/domains/{domain}", Summary: "Provision or update a custom domain", Tags: []string{"domains"}, RequestBody: body, Responses: ok})
	reg.Register(openapi.Operation{Method: "DELETE", Path: "/admin/domains/{domain}", Summary: "Remove a custom domain", Tags: []string{"domains"}, Responses: ok})
	return reg
}
