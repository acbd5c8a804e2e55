// Package docs holds the generated OpenAPI document served at /swagger/.
// Regenerate with: swag init -g internal/platform/httpserver/server.go -o internal/platform/httpserver/docs
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
        "/api/auth/v1/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register an identity and receive a token pair",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/auth/v1/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange credentials for a token pair",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/auth/v1/me": {
            "get": {
                "tags": ["auth"],
                "summary": "Current profile for the bearer session",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/scheduling/v1/meetings": {
            "get": {
                "tags": ["scheduling"],
                "summary": "List meetings in the caller's organization",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["scheduling"],
                "summary": "Request a meeting with proposed slots",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/scheduling/v1/meetings/{meeting_id}": {
            "get": {
                "tags": ["scheduling"],
                "summary": "Fetch one meeting",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/scheduling/v1/meetings/{meeting_id}/accept": {
            "post": {
                "tags": ["scheduling"],
                "summary": "Accept a proposed slot",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/scheduling/v1/meetings/{meeting_id}/deny": {
            "post": {
                "tags": ["scheduling"],
                "summary": "Deny a pending meeting",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/scheduling/v1/meetings/{meeting_id}/reschedule": {
            "post": {
                "tags": ["scheduling"],
                "summary": "Propose new slots",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/scheduling/v1/meetings/{meeting_id}/end": {
            "post": {
                "tags": ["scheduling"],
                "summary": "End a meeting",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/video/v1/meetings/{meeting_id}/token": {
            "post": {
                "tags": ["video"],
                "summary": "Issue a short-lived room join token",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/video/v1/meetings/{meeting_id}/room": {
            "get": {
                "tags": ["video"],
                "summary": "Interview room bootstrap projection",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/video/v1/webhooks/provider": {
            "post": {
                "tags": ["video"],
                "summary": "Signed provider webhook intake",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "hireloop API",
	Description:      "Authorization, meeting lifecycle, and video reconciliation endpoints.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
