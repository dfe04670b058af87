package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Attendance API",
        "description": "Event attendance tracking with QR scanning and an idempotent ledger",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scans", "description": "QR scan recording and offline sync"},
        {"name": "Events", "description": "Event lifecycle and session schedules"},
        {"name": "Summaries", "description": "Attendance summaries and exports"},
        {"name": "Terms", "description": "School term management"}
    ],
    "paths": {
        "/scans": {
            "post": {
                "tags": ["Scans"],
                "summary": "Record a QR scan",
                "description": "Decodes the scanned code, resolves the attendance slot and commits it to the ledger",
                "security": [{"DeviceToken": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScanRequest"}}
                ],
                "responses": {
                    "200": {"description": "Scan accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed scan payload"},
                    "401": {"description": "Missing or invalid device token"},
                    "404": {"description": "Student or session day not found"},
                    "409": {"description": "Every open slot already recorded"},
                    "422": {"description": "Scan time outside every slot window"},
                    "503": {"description": "Ledger write contention"}
                }
            }
        },
        "/scans/sync": {
            "post": {
                "tags": ["Scans"],
                "summary": "Sync offline-captured attendance",
                "security": [{"DeviceToken": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SyncRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-record sync report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty batch"}
                }
            }
        },
        "/events": {
            "post": {
                "tags": ["Events"],
                "summary": "Create event",
                "description": "Creates a pending event with one session day per date",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Event created"},
                    "400": {"description": "Validation failed"},
                    "409": {"description": "No active school term"}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Get event with session days",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Event"},
                    "404": {"description": "Event not found"}
                }
            }
        },
        "/events/{id}/approve": {
            "post": {
                "tags": ["Events"],
                "summary": "Approve event and pre-seed ledger rows",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Approved with seeded row count"},
                    "404": {"description": "Event not found"},
                    "409": {"description": "Event is not pending"}
                }
            }
        },
        "/events/archive-past": {
            "post": {
                "tags": ["Events"],
                "summary": "Archive approved events whose last session day has passed",
                "responses": {
                    "200": {"description": "Archive sweep report"}
                }
            }
        },
        "/session-days/{dayId}/schedule": {
            "put": {
                "tags": ["Events"],
                "summary": "Update a session day's slot configuration",
                "parameters": [
                    {"name": "dayId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated schedule"},
                    "400": {"description": "Validation failed"},
                    "404": {"description": "Session day not found"}
                }
            }
        },
        "/session-days/{dayId}/summary": {
            "get": {
                "tags": ["Summaries"],
                "summary": "Slot headcounts and roster sheet for one session day",
                "parameters": [
                    {"name": "dayId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Day summary"},
                    "404": {"description": "Session day not found"}
                }
            }
        },
        "/session-days/{dayId}/export": {
            "get": {
                "tags": ["Summaries"],
                "summary": "Export the roster sheet as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "dayId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Rendered sheet"},
                    "400": {"description": "Unsupported format"},
                    "404": {"description": "Session day not found"}
                }
            }
        },
        "/terms/active": {
            "get": {
                "tags": ["Terms"],
                "summary": "Get the active school term",
                "responses": {
                    "200": {"description": "Active term"},
                    "404": {"description": "No active term"}
                }
            }
        },
        "/terms/rollover": {
            "post": {
                "tags": ["Terms"],
                "summary": "Roll the active term over to its successor",
                "responses": {
                    "200": {"description": "Newly opened term"},
                    "404": {"description": "No active term"},
                    "409": {"description": "Malformed school year"}
                }
            }
        }
    },
    "securityDefinitions": {
        "DeviceToken": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Bearer token signed with the shared scanner device secret"
        }
    },
    "definitions": {
        "ScanRequest": {
            "type": "object",
            "required": ["code"],
            "properties": {
                "code": {"type": "string"},
                "scanned_at": {"type": "string", "format": "date-time"}
            }
        },
        "SyncRequest": {
            "type": "object",
            "required": ["records"],
            "properties": {
                "records": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SyncTuple"}
                }
            }
        },
        "SyncTuple": {
            "type": "object",
            "required": ["session_day_id", "student_id"],
            "properties": {
                "session_day_id": {"type": "string"},
                "student_id": {"type": "string"},
                "times": {
                    "type": "object",
                    "properties": {
                        "am_in": {"type": "string", "format": "date-time"},
                        "am_out": {"type": "string", "format": "date-time"},
                        "pm_in": {"type": "string", "format": "date-time"},
                        "pm_out": {"type": "string", "format": "date-time"}
                    }
                }
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "required": ["name", "venue", "block_ids", "dates"],
            "properties": {
                "name": {"type": "string"},
                "venue": {"type": "string"},
                "scan_personnel": {"type": "string"},
                "block_ids": {"type": "array", "items": {"type": "string"}},
                "dates": {"type": "array", "items": {"$ref": "#/definitions/EventDateRequest"}},
                "tolerance_minutes": {"type": "integer"},
                "duration_minutes": {"type": "integer"}
            }
        },
        "EventDateRequest": {
            "type": "object",
            "required": ["date"],
            "properties": {
                "date": {"type": "string", "example": "2026-03-02"},
                "am_in": {"type": "string", "example": "08:00"},
                "am_out": {"type": "string", "example": "12:00"},
                "pm_in": {"type": "string", "example": "13:00"},
                "pm_out": {"type": "string", "example": "17:00"}
            }
        },
        "UpdateScheduleRequest": {
            "type": "object",
            "properties": {
                "am_in": {"type": "string", "example": "08:00"},
                "am_out": {"type": "string", "example": "12:00"},
                "pm_in": {"type": "string", "example": "13:00"},
                "pm_out": {"type": "string", "example": "17:00"},
                "tolerance_minutes": {"type": "integer"},
                "duration_minutes": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
