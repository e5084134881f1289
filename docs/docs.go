// Package docs registers the OpenAPI document served at /swagger/doc.json.
// Code in this package follows the layout swag generates; regenerate with
// `swag init -g cmd/correctd/docs.go -o docs` after changing API annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "correctd maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/correct": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Correct a text",
                "parameters": [
                    {
                        "description": "Correction request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.CorrectionRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/types.CorrectionResult"}
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/types.ErrorResponse"}
                    }
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Daemon and resource status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/types.StatusResponse"}
                    }
                }
            }
        },
        "/healthz": {
            "get": {
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/readyz": {
            "get": {
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        }
    },
    "definitions": {
        "types.CorrectionRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "level": {"type": "string", "enum": ["basic", "advanced", "formal"]},
                "request_id": {"type": "string"}
            }
        },
        "types.CorrectionResult": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "corrected_text": {"type": "string"},
                "method": {"type": "string"},
                "level": {"type": "string"},
                "elapsed_ms": {"type": "integer"},
                "chunks_total": {"type": "integer"},
                "chunks_succeeded": {"type": "integer"},
                "chunks_failed": {"type": "integer"},
                "chunks_cancelled": {"type": "integer"},
                "approx_changes": {"type": "integer"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "resource": {"type": "object"},
                "corrections_total": {"type": "integer"},
                "fallbacks_total": {"type": "integer"},
                "swaps_total": {"type": "integer"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "correctd API",
	Description:      "HTTP API for resource-arbitrated text correction.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
