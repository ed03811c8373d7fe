package api

// route describes one endpoint for the OpenAPI document.
type route struct {
	method    string
	path      string
	summary   string
	public    bool
	body      map[string]any
	responses map[string]string
}

var routes = []route{
	{
		method: "get", path: "/healthz", summary: "Loop state, nick, uptime and pending timers", public: true,
		responses: map[string]string{"200": "Running", "503": "Not running"},
	},
	{
		method: "get", path: "/metrics", summary: "Prometheus metrics", public: true,
		responses: map[string]string{"200": "Exposition format"},
	},
	{
		method: "get", path: "/events", summary: "Server-sent event stream",
		responses: map[string]string{"200": "text/event-stream"},
	},
	{
		method: "get", path: "/reminders", summary: "Stored reminders, latest due first",
		responses: map[string]string{"200": "Reminder list", "400": "Bad limit"},
	},
	{
		method: "get", path: "/chatlog", summary: "Recent channel activity",
		responses: map[string]string{"200": "Chat log entries", "400": "Bad limit"},
	},
	{
		method: "post", path: "/say", summary: "Send a PRIVMSG",
		body: map[string]any{
			"type":     "object",
			"required": []string{"target", "text"},
			"properties": map[string]any{
				"target": map[string]any{"type": "string"},
				"text":   map[string]any{"type": "string"},
			},
		},
		responses: map[string]string{"200": "Sent", "400": "Bad request", "503": "Not connected"},
	},
	{
		method: "get", path: "/openapi.json", summary: "This document",
		responses: map[string]string{"200": "OpenAPI 3.1 document"},
	},
}

// buildOpenAPIDoc returns an OpenAPI 3.1 document covering every route.
func buildOpenAPIDoc() map[string]any {
	paths := map[string]any{}
	for _, rt := range routes {
		responses := map[string]any{}
		for code, desc := range rt.responses {
			responses[code] = map[string]any{"description": desc}
		}
		if !rt.public {
			responses["401"] = map[string]any{"description": "Missing or invalid API key"}
		}

		op := map[string]any{
			"operationId": rt.method + "_" + rt.path[1:],
			"summary":     rt.summary,
			"responses":   responses,
		}
		if !rt.public {
			op["security"] = []any{map[string]any{"BearerAuth": []string{}}}
		}
		if rt.body != nil {
			op["requestBody"] = map[string]any{
				"required": true,
				"content": map[string]any{
					"application/json": map[string]any{"schema": rt.body},
				},
			}
		}

		item, _ := paths[rt.path].(map[string]any)
		if item == nil {
			item = map[string]any{}
			paths[rt.path] = item
		}
		item[rt.method] = op
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "ircbotd",
			"version": "1.0",
		},
		"paths": paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}
