package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PróSiga Enrollment Gateway",
        "description": "Gateway for catalog search, enrollment staging and batch submission against the PróSiga academic backend",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Catalog", "description": "Academic periods and class section search"},
        {"name": "Staging", "description": "Per-user enrollment staging set"},
        {"name": "Enrollments", "description": "Batch enrollment submission"},
        {"name": "Documents", "description": "Document download passthrough"}
    ],
    "paths": {
        "/periods": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List academic periods, most recent first",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "No credential available"}
                }
            }
        },
        "/catalog": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Debounced class section search within a period",
                "parameters": [
                    {"name": "periodId", "in": "query", "type": "integer", "required": true},
                    {"name": "q", "in": "query", "type": "string", "required": false}
                ],
                "responses": {
                    "200": {"description": "Latest resolved result set", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing or invalid period"},
                    "502": {"description": "Upstream failure"}
                }
            }
        },
        "/staging": {
            "get": {
                "tags": ["Staging"],
                "summary": "List staged sections in insertion order",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Staging"],
                "summary": "Stage a class section",
                "responses": {
                    "201": {"description": "Staged"},
                    "200": {"description": "Already staged (no-op)"},
                    "409": {"description": "Submission in progress or staging limit reached"},
                    "422": {"description": "Section not eligible"}
                }
            },
            "delete": {
                "tags": ["Staging"],
                "summary": "Empty the staging set",
                "responses": {
                    "204": {"description": "Cleared"}
                }
            }
        },
        "/staging/{sectionId}": {
            "delete": {
                "tags": ["Staging"],
                "summary": "Remove a staged section (no-op when absent)",
                "parameters": [
                    {"name": "sectionId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/enrollments/submit": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Submit every staged section concurrently and report per-item outcomes",
                "responses": {
                    "200": {"description": "Aggregated submission report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "No credential available"},
                    "409": {"description": "Submission already in progress"}
                }
            }
        },
        "/documents/transcript": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download the academic transcript as generated by the backend",
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "Byte stream"},
                    "502": {"description": "Upstream failure"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
