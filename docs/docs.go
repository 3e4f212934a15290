// Package docs registra el documento OpenAPI que sirve /swagger/*.
// Refleja las anotaciones @Router de internal/domain/patients/handler.go;
// los tests del paquete verifican que cada ruta registrada esté documentada.
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
        "/api/patient": {
            "get": {
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Listar pacientes",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/patients.patientResponse"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/patients.errorResponse"}}
                }
            },
            "post": {
                "description": "Registra un paciente con sus signos vitales actuales. El healthStatus se calcula en el servidor.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Crear paciente",
                "parameters": [
                    {"description": "Datos del paciente", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/patients.patientRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/patients.patientResponse"}},
                    "400": {"description": "validación", "schema": {"$ref": "#/definitions/patients.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/patients.errorResponse"}}
                }
            }
        },
        "/api/patient/{patientID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Obtener paciente",
                "parameters": [
                    {"type": "string", "description": "ID del paciente", "name": "patientID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/patients.patientResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/patients.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/patients.errorResponse"}}
                }
            },
            "put": {
                "description": "Reemplaza nombre, fecha de nacimiento, última visita y signos vitales. Si no se envía healthStatus se recalcula. Con ` + "`" + `version` + "`" + ` la escritura es condicional.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Actualizar paciente",
                "parameters": [
                    {"type": "string", "description": "ID del paciente", "name": "patientID", "in": "path", "required": true},
                    {"description": "Datos del paciente", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/patients.patientRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/patients.patientResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/patients.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/patients.errorResponse"}},
                    "409": {"description": "version conflict", "schema": {"$ref": "#/definitions/patients.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/patients.errorResponse"}}
                }
            },
            "delete": {
                "tags": ["patients"],
                "summary": "Eliminar paciente",
                "parameters": [
                    {"type": "string", "description": "ID del paciente", "name": "patientID", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/patients.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/patients.errorResponse"}}
                }
            }
        },
        "/api/patient/{patientID}/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Listar historial del paciente",
                "parameters": [
                    {"type": "string", "description": "ID del paciente", "name": "patientID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/patients.historyEntryResponse"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/patients.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/patients.errorResponse"}}
                }
            },
            "patch": {
                "description": "Agrega una lectura de signos vitales al historial. El estado de la entrada se calcula en el servidor; el healthStatus del paciente no cambia salvo que el servicio esté configurado para sincronizarlo.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Agregar entrada al historial",
                "parameters": [
                    {"type": "string", "description": "Solo en modo dev, ID de usuario para depuración", "name": "X-Debug-User-ID", "in": "header"},
                    {"type": "string", "description": "Bearer token en producción", "name": "Authorization", "in": "header"},
                    {"type": "string", "description": "ID del paciente", "name": "patientID", "in": "path", "required": true},
                    {"description": "Lectura; date en formato RFC3339", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/patients.historyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/patients.patientResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/patients.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/patients.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/patients.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/patients.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "patients.errorResponse": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "patients.historyEntryResponse": {
            "type": "object",
            "properties": {
                "bloodPressure": {"type": "string"},
                "date": {"type": "string"},
                "healthStatus": {"type": "string"},
                "heartbeatRate": {"type": "integer"},
                "oxygenLevel": {"type": "integer"},
                "recordedBy": {"type": "string"},
                "respiratoryRate": {"type": "integer"}
            }
        },
        "patients.historyRequest": {
            "type": "object",
            "properties": {
                "bloodPressure": {"type": "string", "example": "120/80"},
                "date": {"type": "string", "example": "2024-10-15T10:30:00Z"},
                "heartbeatRate": {"type": "integer", "example": 72},
                "oxygenLevel": {"type": "integer", "example": 98},
                "respiratoryRate": {"type": "integer", "example": 16}
            }
        },
        "patients.patientRequest": {
            "type": "object",
            "properties": {
                "bloodPressure": {"type": "string", "example": "120/80"},
                "dob": {"type": "string", "example": "1990-01-15"},
                "healthStatus": {"type": "string"},
                "heartbeatRate": {"type": "integer", "example": 72},
                "lastVisit": {"type": "string", "example": "2024-10-01T10:30:00Z"},
                "name": {"type": "string"},
                "oxygenLevel": {"type": "integer", "example": 98},
                "respiratoryRate": {"type": "integer", "example": 16},
                "version": {"type": "integer"}
            }
        },
        "patients.patientResponse": {
            "type": "object",
            "properties": {
                "age": {"type": "integer"},
                "bloodPressure": {"type": "string"},
                "createdAt": {"type": "string"},
                "dob": {"type": "string"},
                "_id": {"type": "string"},
                "healthStatus": {"type": "string"},
                "heartbeatRate": {"type": "integer"},
                "history": {"type": "array", "items": {"$ref": "#/definitions/patients.historyEntryResponse"}},
                "id": {"type": "string"},
                "lastVisit": {"type": "string"},
                "name": {"type": "string"},
                "oxygenLevel": {"type": "integer"},
                "respiratoryRate": {"type": "integer"},
                "updatedAt": {"type": "string"},
                "version": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo se puede ajustar (Host, BasePath) antes de servir.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Patient Clinical History API",
	Description:      "Registro de pacientes, signos vitales e historial clínico.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
