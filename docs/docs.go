// Package docs registers the histoscan OpenAPI document with swag.
// Regenerate with `swag init -g cmd/histoscan/docs.go -o docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "histoscan maintainers"
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
        "/predict": {
            "post": {
                "description": "Accepts a multipart upload in field \"image\" and returns the classification.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["inference"],
                "summary": "Classify an image",
                "parameters": [
                    {
                        "type": "file",
                        "description": "Tissue image (PNG, JPEG or GIF)",
                        "name": "image",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PredictionResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports model and memory state. Does not force a model load.",
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/memory": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Memory snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.MemoryResponse"}}
                }
            }
        },
        "/check-model": {
            "get": {
                "description": "Lists candidate artifact paths and the contents of their directories.",
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Artifact diagnostics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CheckModelResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.PredictionResult": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "No Cancer"},
                "confidence": {"type": "number", "example": 87.5},
                "cancer_probability": {"type": "number", "example": 12.5},
                "processing_time_ms": {"type": "integer", "example": 42},
                "note": {"type": "string"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "message": {"type": "string", "example": "Backend is running"},
                "model_loaded": {"type": "boolean", "example": true},
                "model_path": {"type": "string", "example": "model/best_cancer_model_small.onnx"},
                "model_exists": {"type": "boolean", "example": true},
                "image_size": {"type": "array", "items": {"type": "integer"}},
                "memory_available": {"type": "integer", "example": 1073741824},
                "memory_percent": {"type": "number", "example": 63.2},
                "state": {"type": "string", "example": "ready"},
                "runtime_state": {"type": "string", "example": "loaded"},
                "last_error": {"type": "string"},
                "loads_total": {"type": "integer", "example": 1},
                "uptime_seconds": {"type": "integer", "example": 3600},
                "degraded_mode": {"type": "boolean"}
            }
        },
        "types.MemoryResponse": {
            "type": "object",
            "properties": {
                "used_percent": {"type": "number", "example": 63.2},
                "available_bytes": {"type": "integer", "example": 1073741824},
                "total_bytes": {"type": "integer", "example": 2147483648},
                "process_rss_bytes": {"type": "integer", "example": 268435456},
                "available_human": {"type": "string", "example": "1.1 GB"},
                "load_threshold_percent": {"type": "number", "example": 85},
                "admission_threshold_percent": {"type": "number", "example": 95},
                "has_headroom": {"type": "boolean"},
                "error": {"type": "string"}
            }
        },
        "types.CheckModelResponse": {
            "type": "object",
            "properties": {
                "found_paths": {"type": "array", "items": {"type": "string"}},
                "possible_paths": {"type": "array", "items": {"type": "string"}},
                "working_dir": {"type": "string"},
                "directories": {
                    "type": "object",
                    "additionalProperties": {"type": "array", "items": {"type": "string"}}
                }
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "No image provided"},
                "code": {"type": "integer", "example": 400},
                "kind": {"type": "string", "example": "image_decode"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "histoscan API",
	Description:      "HTTP API for binary tissue image classification.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
