// Package swagger provides API documentation
package swagger

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
        "/v1/decks": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Decks"],
                "summary": "Create a deck generation job",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/requests.CreateDeckRequest"}}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/responses.DeckJobResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/platformerrors.HTTPErrorResponse"}}
                }
            }
        },
        "/v1/decks/preview": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Decks"],
                "summary": "Preview a deck",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/requests.PreviewDeckRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/platformerrors.HTTPErrorResponse"}}
                }
            }
        },
        "/v1/decks/{job_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Decks"],
                "summary": "Get a deck job",
                "parameters": [{"type": "string", "name": "job_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/responses.DeckJobResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/platformerrors.HTTPErrorResponse"}}
                }
            }
        },
        "/v1/decks/{job_id}/download": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "tags": ["Decks"],
                "summary": "Download a rendered deck",
                "parameters": [{"type": "string", "name": "job_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/platformerrors.HTTPErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/platformerrors.HTTPErrorResponse"}}
                }
            }
        },
        "/v1/decks/{job_id}/watch": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Decks"],
                "summary": "Watch deck job progress",
                "parameters": [{"type": "string", "name": "job_id", "in": "path", "required": true}],
                "responses": {
                    "101": {"description": "Switching Protocols", "schema": {"$ref": "#/definitions/responses.ProgressEvent"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/platformerrors.HTTPErrorResponse"}}
                }
            }
        },
        "/v1/themes": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Themes"],
                "summary": "List themes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/responses.ThemeListResponse"}}
                }
            }
        }
    },
    "definitions": {
        "platformerrors.HTTPErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "message": {"type": "string"},
                        "type": {"type": "string"},
                        "code": {"type": "string"},
                        "request_id": {"type": "string"}
                    }
                }
            }
        },
        "requests.CreateDeckRequest": {
            "type": "object",
            "required": ["input"],
            "properties": {
                "prompt": {"type": "string", "example": "Supplier overview for a European buyer"},
                "input": {"type": "object"},
                "mode": {"type": "string", "enum": ["local", "remote"], "example": "local"},
                "theme": {"type": "string", "example": "default"}
            }
        },
        "requests.PreviewDeckRequest": {
            "type": "object",
            "required": ["input"],
            "properties": {
                "prompt": {"type": "string"},
                "input": {"type": "object"},
                "theme": {"type": "string"}
            }
        },
        "responses.DeckJobResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "object": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "running", "done", "failed"]},
                "progress": {"type": "integer"},
                "mode": {"type": "string"},
                "theme": {"type": "string"},
                "error": {"type": "string"},
                "slide_spec": {"type": "object"},
                "download_url": {"type": "string"},
                "remote_id": {"type": "string"},
                "remote_url": {"type": "string"},
                "export_url": {"type": "string"},
                "created_at": {"type": "integer"},
                "updated_at": {"type": "integer"},
                "completed_at": {"type": "integer"}
            }
        },
        "responses.ProgressEvent": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "id": {"type": "string"},
                "status": {"type": "string"},
                "progress": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "responses.ThemeListResponse": {
            "type": "object",
            "properties": {
                "object": {"type": "string"},
                "default": {"type": "string"},
                "data": {"type": "array", "items": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token issued by the identity provider.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Deck API",
	Description:      "Generates presentation decks from supplier records.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
