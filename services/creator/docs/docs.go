// Package docs registers the creator service OpenAPI description with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/postings": {
            "get": {"tags": ["postings"], "summary": "List postings", "parameters": [
                {"type": "string", "name": "cursor", "in": "query"},
                {"type": "integer", "name": "limit", "in": "query"},
                {"type": "string", "name": "filter", "in": "query", "enum": ["all", "membership", "purchase"]},
                {"type": "string", "name": "creator_id", "in": "query"}
            ], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"tags": ["postings"], "summary": "Create posting", "security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}
        },
        "/postings/{id}": {
            "get": {"tags": ["postings"], "summary": "Get posting", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["postings"], "summary": "Delete posting", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/postings/{id}/like": {
            "post": {"tags": ["postings"], "summary": "Like posting", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}},
            "delete": {"tags": ["postings"], "summary": "Remove like", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/postings/{id}/view": {"post": {"tags": ["postings"], "summary": "Record a view", "responses": {"200": {"description": "OK"}}}},
        "/postings/{id}/purchase": {"post": {"tags": ["postings"], "summary": "Purchase posting", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/creators": {"get": {"tags": ["creators"], "summary": "Creator directory", "responses": {"200": {"description": "OK"}}}},
        "/creators/{id}/tiers": {"get": {"tags": ["tiers"], "summary": "Creator tiers", "responses": {"200": {"description": "OK"}}}},
        "/creators/{id}/follow": {
            "post": {"tags": ["creators"], "summary": "Follow creator", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["creators"], "summary": "Unfollow creator", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/tiers": {"post": {"tags": ["tiers"], "summary": "Create tier", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/tiers/{id}": {
            "patch": {"tags": ["tiers"], "summary": "Update tier", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}},
            "delete": {"tags": ["tiers"], "summary": "Delete tier", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/tiers/{id}/subscribe": {
            "post": {"tags": ["tiers"], "summary": "Join tier", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}},
            "delete": {"tags": ["tiers"], "summary": "Leave tier", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/me/entitlements": {"get": {"tags": ["tiers"], "summary": "Viewer entitlement snapshot", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8002",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Creator Service API",
	Description:      "Postings, membership tiers, subscriptions and follows",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
