// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with `swag init -g internal/server/server.go` after changing
// handler annotations.
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
        "/analyze": {
            "post": {
                "description": "Scores the answers of every selected belief system and merges them into a primary and secondary karma type.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Analyze questionnaire answers",
                "parameters": [
                    {
                        "description": "Belief systems, answers and profile",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/server.AnalyzeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/catalog/karma-types": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List karma types",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/catalog/karma-types/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Get one karma type",
                "parameters": [{"type": "string", "description": "Karma type id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/catalog/questionnaires": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List questionnaires with their trust weights",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/catalog/questionnaires/{system}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Get the questionnaire of one belief system",
                "parameters": [{"type": "string", "description": "Belief system", "name": "system", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["operations"],
                "summary": "Service health",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/metrics": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["operations"],
                "summary": "Prometheus metrics",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/metrics/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["operations"],
                "summary": "Request, cache, analysis and compression counters",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/cache/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["operations"],
                "summary": "Response cache statistics",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/ratelimit/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["operations"],
                "summary": "Rate limiter statistics",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        }
    },
    "definitions": {
        "server.AnalyzeRequest": {
            "type": "object",
            "required": ["beliefSystems"],
            "properties": {
                "beliefSystems": {"type": "array", "maxItems": 16, "minItems": 1, "items": {"type": "string"}},
                "answers": {"type": "object", "additionalProperties": {"type": "object"}},
                "profile": {
                    "type": "object",
                    "properties": {
                        "name": {"type": "string"},
                        "birthDate": {"type": "string", "example": "1990-05-01"}
                    }
                }
            }
        },
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "category": {"type": "string"},
                        "message": {"type": "string"},
                        "details": {"type": "object", "additionalProperties": {"type": "string"}},
                        "requestId": {"type": "string"},
                        "timestamp": {"type": "string"}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Karma Compass API",
	Description:      "Karma type analysis across astrology, psychology, chakras, numerology and tarot.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
