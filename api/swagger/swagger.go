package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Portal Alumnos API",
        "description": "Backend-for-frontend for the student academic portal",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Calificaciones", "description": "Grades, course history and degree-plan map"},
        {"name": "Horario", "description": "Current schedule"},
        {"name": "Creditos", "description": "Credit and requirement progress"},
        {"name": "Kardex", "description": "Transcript uploads"},
        {"name": "Session", "description": "Active expediente session"},
        {"name": "Realtime", "description": "Server-sent portal events"},
        {"name": "Sistema", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Sistema"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Sistema"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["Sistema"],
                "summary": "Aggregated runtime metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calificaciones": {
            "get": {
                "tags": ["Calificaciones"],
                "summary": "Current-enrollment grades",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No active session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calificaciones/historial": {
            "get": {
                "tags": ["Calificaciones"],
                "summary": "Course history",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "vista", "in": "query", "type": "string", "enum": ["global", "enrolled", "term"]},
                    {"name": "semestre", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calificaciones/mapa": {
            "get": {
                "tags": ["Calificaciones"],
                "summary": "Degree-plan map",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calificaciones/export": {
            "get": {
                "tags": ["Calificaciones"],
                "summary": "Export the academic transcript",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "formato", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/horario": {
            "get": {
                "tags": ["Horario"],
                "summary": "Current schedule",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/creditos": {
            "get": {
                "tags": ["Creditos"],
                "summary": "Credit progress",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/kardex/upload": {
            "post": {
                "tags": ["Kardex"],
                "summary": "Upload a kardex PDF",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "expediente", "in": "formData", "type": "string", "required": true},
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported media type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/kardex/history": {
            "get": {
                "tags": ["Kardex"],
                "summary": "Previous kardex uploads",
                "parameters": [
                    {"name": "expediente", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/session": {
            "get": {
                "tags": ["Session"],
                "summary": "Active expediente",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No active session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Session"],
                "summary": "Clear the active session",
                "responses": {
                    "204": {"description": "Cleared"}
                }
            }
        },
        "/realtime/sse": {
            "get": {
                "tags": ["Realtime"],
                "summary": "Portal event stream",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "canal", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Event stream"}
                }
            }
        }
    },
    "definitions": {
        "ReconciledRow": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "group": {"type": "string"},
                "semester": {"type": "string"},
                "grade": {"type": "number"},
                "status": {"type": "string", "enum": ["not_taken", "passed", "failed", "dropped", "in_progress"]}
            }
        },
        "StudentHeader": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "planYear": {"type": "string"},
                "type": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "UploadRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "filename": {"type": "string"},
                "uploadedAt": {"type": "string"},
                "status": {"type": "string", "enum": ["valid", "rejected", "processing"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
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
