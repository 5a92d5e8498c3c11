package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Timetable generation, conflict detection and version history.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Timetables",
            "description": "Generation, manual edits, conflicts and versions"
        },
        {
            "name": "Timetable Configs",
            "description": "Weekly grid configuration"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Dependency unavailable"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/timetables": {
            "post": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Create timetable",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateTimetableRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Initial entries conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/{id}": {
            "get": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Get timetable with entries",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/{id}/generate": {
            "post": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Generate timetable",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Replaces every unlocked entry with a conflict-free placement and records a new active version.",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/GenerateTimetableRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Timetable busy",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "No active config",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Invalid config",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/{id}/conflicts": {
            "get": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Detect timetable conflicts",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/{id}/entries": {
            "post": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Place entry manually",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ManualEntryRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Slot conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/{id}/entries/swap": {
            "post": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Swap two entries",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SwapEntriesRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Slot conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/{id}/entries/{entryId}": {
            "put": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Move or update entry",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "entryId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ManualEntryRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Slot conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Delete entry",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "entryId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "logChange",
                        "in": "query",
                        "type": "boolean"
                    },
                    {
                        "name": "reason",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    }
                }
            }
        },
        "/api/v1/timetables/{id}/versions": {
            "get": {
                "tags": [
                    "Timetables"
                ],
                "summary": "List timetable versions",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Record manual version",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/CreateVersionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/{id}/versions/{versionId}/changes": {
            "get": {
                "tags": [
                    "Timetables"
                ],
                "summary": "List version change logs",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "versionId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Append change log",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "versionId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RecordChangeRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetables/{id}/export": {
            "get": {
                "tags": [
                    "Timetables"
                ],
                "summary": "Export timetable grid",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ],
                        "default": "csv"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        },
        "/api/v1/timetable-configs": {
            "post": {
                "tags": [
                    "Timetable Configs"
                ],
                "summary": "Create timetable config",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateTimetableConfigRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Invalid config",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable-configs/active": {
            "get": {
                "tags": [
                    "Timetable Configs"
                ],
                "summary": "Get active timetable config",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "No active config",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/timetable-configs/{id}/activate": {
            "post": {
                "tags": [
                    "Timetable Configs"
                ],
                "summary": "Activate timetable config",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "AssignmentRequest": {
            "type": "object",
            "required": [
                "teacherId",
                "classId",
                "subjectId"
            ],
            "properties": {
                "teacherId": {
                    "type": "string"
                },
                "classId": {
                    "type": "string"
                },
                "subjectId": {
                    "type": "string"
                },
                "periodsPerWeek": {
                    "type": "integer"
                }
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "configId": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "assignments": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/AssignmentRequest"
                    }
                }
            }
        },
        "ManualEntryRequest": {
            "type": "object",
            "required": [
                "day",
                "period"
            ],
            "properties": {
                "day": {
                    "type": "string"
                },
                "period": {
                    "type": "integer"
                },
                "teacherId": {
                    "type": "string"
                },
                "classId": {
                    "type": "string"
                },
                "subjectId": {
                    "type": "string"
                },
                "room": {
                    "type": "string"
                },
                "isLocked": {
                    "type": "boolean"
                },
                "logChange": {
                    "type": "boolean"
                },
                "reason": {
                    "type": "string"
                }
            }
        },
        "SwapEntriesRequest": {
            "type": "object",
            "required": [
                "firstEntryId",
                "secondEntryId"
            ],
            "properties": {
                "firstEntryId": {
                    "type": "string"
                },
                "secondEntryId": {
                    "type": "string"
                },
                "logChange": {
                    "type": "boolean"
                },
                "reason": {
                    "type": "string"
                }
            }
        },
        "TimetableEntryInput": {
            "type": "object",
            "required": [
                "day",
                "period"
            ],
            "properties": {
                "day": {
                    "type": "string"
                },
                "period": {
                    "type": "integer"
                },
                "teacherId": {
                    "type": "string"
                },
                "classId": {
                    "type": "string"
                },
                "subjectId": {
                    "type": "string"
                },
                "room": {
                    "type": "string"
                },
                "isLocked": {
                    "type": "boolean"
                }
            }
        },
        "CreateTimetableRequest": {
            "type": "object",
            "required": [
                "name",
                "term",
                "academicYear"
            ],
            "properties": {
                "name": {
                    "type": "string"
                },
                "term": {
                    "type": "string"
                },
                "academicYear": {
                    "type": "string"
                },
                "startDate": {
                    "type": "string",
                    "format": "date-time"
                },
                "endDate": {
                    "type": "string",
                    "format": "date-time"
                },
                "isActive": {
                    "type": "boolean"
                },
                "entries": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/TimetableEntryInput"
                    }
                }
            }
        },
        "BreakPeriod": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "afterPeriod": {
                    "type": "integer"
                },
                "startTime": {
                    "type": "string"
                },
                "endTime": {
                    "type": "string"
                }
            }
        },
        "TimetablePreferences": {
            "type": "object",
            "properties": {
                "allowDoublePeriods": {
                    "type": "boolean"
                },
                "maxConsecutivePeriods": {
                    "type": "integer"
                },
                "preferredSubjectDistribution": {
                    "type": "string",
                    "enum": [
                        "balanced",
                        "concentrated"
                    ]
                }
            }
        },
        "CreateTimetableConfigRequest": {
            "type": "object",
            "required": [
                "name"
            ],
            "properties": {
                "name": {
                    "type": "string"
                },
                "periodsPerDay": {
                    "type": "integer"
                },
                "daysOfWeek": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "breakPeriods": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/BreakPeriod"
                    }
                },
                "periodDurationMinutes": {
                    "type": "integer"
                },
                "preferences": {
                    "$ref": "#/definitions/TimetablePreferences"
                },
                "activate": {
                    "type": "boolean"
                }
            }
        },
        "CreateVersionRequest": {
            "type": "object",
            "properties": {
                "description": {
                    "type": "string"
                }
            }
        },
        "EntrySnapshot": {
            "type": "object",
            "properties": {
                "entryId": {
                    "type": "string"
                },
                "day": {
                    "type": "string"
                },
                "period": {
                    "type": "integer"
                },
                "teacherId": {
                    "type": "string"
                },
                "classId": {
                    "type": "string"
                },
                "subjectId": {
                    "type": "string"
                },
                "room": {
                    "type": "string"
                },
                "isLocked": {
                    "type": "boolean"
                }
            }
        },
        "RecordChangeRequest": {
            "type": "object",
            "required": [
                "action"
            ],
            "properties": {
                "action": {
                    "type": "string",
                    "enum": [
                        "create",
                        "update",
                        "delete",
                        "move",
                        "swap"
                    ]
                },
                "oldValue": {
                    "$ref": "#/definitions/EntrySnapshot"
                },
                "newValue": {
                    "$ref": "#/definitions/EntrySnapshot"
                },
                "reason": {
                    "type": "string"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
