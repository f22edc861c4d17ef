// Package docs registers the notification service OpenAPI description with swag.
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
        "/notifications": {
            "get": {"tags": ["notifications"], "summary": "List notifications, newest first", "security": [{"BearerAuth": []}], "parameters": [
                {"type": "string", "name": "cursor", "in": "query"},
                {"type": "integer", "name": "limit", "in": "query"}
            ], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/notifications/unread-count": {
            "get": {"tags": ["notifications"], "summary": "Unread notification count", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/read": {
            "post": {"tags": ["notifications"], "summary": "Mark notifications read up to an id, or all", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/notifications/mutes/{creator_id}": {
            "get": {"tags": ["notifications"], "summary": "Whether new-post notifications from a creator are muted", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["notifications"], "summary": "Mute a creator", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["notifications"], "summary": "Unmute a creator", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8003",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Notification Service API",
	Description:      "Notification inbox, unread counts and the unread-count websocket",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
