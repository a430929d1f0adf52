// Package docs registers the OpenAPI document of /api/v1 with swag. It has
// the layout `swag init -g main_annotations.go -d internal/api -o internal/api/docs`
// writes, so regenerating it from the handler annotations replaces it.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/nav/public": {
            "get": {
                "description": "Derives the public navbar for a page path, scroll offset and mobile menu flag.",
                "produces": ["application/json"],
                "tags": ["Navigation"],
                "summary": "Public navbar state",
                "parameters": [
                    {"type": "string", "default": "/", "description": "Page path", "name": "path", "in": "query"},
                    {"type": "number", "description": "Scroll offset in pixels", "name": "offset", "in": "query"},
                    {"type": "boolean", "description": "Mobile menu open", "name": "mobile", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/nav.PublicView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/nav/side": {
            "get": {
                "security": [{"SessionCookie": []}],
                "description": "Derives the side navbar for the session's user, including the unread badge.",
                "produces": ["application/json"],
                "tags": ["Navigation"],
                "summary": "Side navbar state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/nav.SideView"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "nav.Badge": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "visible": {"type": "boolean"}
            }
        },
        "nav.CTAView": {
            "type": "object",
            "properties": {
                "current": {"type": "boolean"},
                "icon": {"type": "string"},
                "label": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "nav.HeaderTone": {
            "type": "string",
            "enum": ["transparent", "opaque"],
            "x-enum-varnames": ["HeaderTransparent", "HeaderOpaque"]
        },
        "nav.Link": {
            "type": "object",
            "properties": {
                "icon": {"type": "string"},
                "label": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "nav.LinkView": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"},
                "icon": {"type": "string"},
                "label": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "nav.PublicView": {
            "type": "object",
            "properties": {
                "ctas": {"type": "array", "items": {"$ref": "#/definitions/nav.CTAView"}},
                "header": {"$ref": "#/definitions/nav.HeaderTone"},
                "links": {"type": "array", "items": {"$ref": "#/definitions/nav.LinkView"}},
                "mobile_open": {"type": "boolean"},
                "path": {"type": "string"}
            }
        },
        "nav.SideView": {
            "type": "object",
            "properties": {
                "badge": {"$ref": "#/definitions/nav.Badge"},
                "brand_href": {"type": "string"},
                "greeting": {"type": "string"},
                "heading": {"type": "string"},
                "menu_items": {"type": "array", "items": {"$ref": "#/definitions/nav.Link"}},
                "notifications_href": {"type": "string"},
                "role": {"type": "string"},
                "show_notifications": {"type": "boolean"},
                "subtitle": {"type": "string"},
                "user_menu_open": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "SessionCookie": {"type": "apiKey", "name": "pinjam_session", "in": "cookie"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Pinjam API",
	Description:      "Navigation state of the Pinjam lending catalog.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
