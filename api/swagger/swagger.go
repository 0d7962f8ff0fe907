package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Pantry Sync API",
        "description": "Appointment scheduling and realtime fulfillment sync for food pantry distributions",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "Session": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Appointments", "description": "Slot grids and occupancy"},
        {"name": "Fulfillments", "description": "Per-family appointment records"},
        {"name": "Delivery", "description": "Greeter view of the current day"},
        {"name": "Shoppers", "description": "Volunteer shopper assignments"},
        {"name": "Realtime", "description": "Presence and the operator channel"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "summary": "Readiness check against postgres and redis",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "A dependency is down"}}
            }
        },
        "/metrics": {
            "get": {"summary": "Prometheus metrics", "produces": ["text/plain"], "responses": {"200": {"description": "OK"}}}
        },
        "/ws": {
            "get": {
                "tags": ["Realtime"],
                "summary": "Upgrade to the operator websocket channel",
                "parameters": [{"name": "token", "in": "query", "type": "string"}],
                "responses": {"101": {"description": "Switching protocols"}, "401": {"$ref": "#/responses/Error"}}
            }
        },
        "/api/appointments": {
            "get": {
                "tags": ["Appointments"],
                "summary": "Scheduling view with slot occupancy",
                "security": [{"Session": []}],
                "parameters": [
                    {"name": "distribution", "in": "query", "type": "string", "description": "YYYY-MM-DD, true or latest"},
                    {"name": "family", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"$ref": "#/responses/OK"}, "404": {"$ref": "#/responses/Error"}}
            }
        },
        "/api/appointments/occupancy": {
            "get": {
                "tags": ["Appointments"],
                "summary": "Counters at one slot of the active distribution",
                "security": [{"Session": []}],
                "parameters": [
                    {"name": "day", "in": "query", "type": "integer", "required": true},
                    {"name": "time", "in": "query", "type": "string", "required": true}
                ],
                "responses": {"200": {"$ref": "#/responses/OK"}, "400": {"$ref": "#/responses/Error"}}
            }
        },
        "/api/fulfillments": {
            "put": {
                "tags": ["Fulfillments"],
                "summary": "Save a family's fulfillment record",
                "security": [{"Session": []}],
                "parameters": [
                    {"name": "X-Connection-ID", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveFulfillmentRequest"}}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/OK"},
                    "400": {"$ref": "#/responses/Error"},
                    "409": {"$ref": "#/responses/Error"},
                    "422": {"$ref": "#/responses/Error"},
                    "503": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/api/fulfillments/{distribution}/{family}": {
            "delete": {
                "tags": ["Fulfillments"],
                "summary": "Cancel a family's appointment, keeping notes",
                "security": [{"Session": []}],
                "parameters": [
                    {"name": "distribution", "in": "path", "type": "string", "required": true},
                    {"name": "family", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"200": {"$ref": "#/responses/OK"}, "503": {"$ref": "#/responses/Error"}}
            }
        },
        "/api/fulfillments/{distribution}/{family}/fulfilled": {
            "patch": {
                "tags": ["Fulfillments"],
                "summary": "Mark a scheduled appointment fulfilled or not",
                "security": [{"Session": []}],
                "parameters": [
                    {"name": "distribution", "in": "path", "type": "string", "required": true},
                    {"name": "family", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"fulfilled": {"type": "boolean"}}}}
                ],
                "responses": {"200": {"$ref": "#/responses/OK"}, "409": {"$ref": "#/responses/Error"}}
            }
        },
        "/api/arrivals": {
            "post": {
                "tags": ["Fulfillments"],
                "summary": "Announce that a family has arrived",
                "security": [{"Session": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ArrivalRequest"}}
                ],
                "responses": {"204": {"description": "Announced"}}
            }
        },
        "/api/delivery-day": {
            "get": {
                "tags": ["Delivery"],
                "summary": "Today's appointments and shoppers",
                "security": [{"Session": []}],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            }
        },
        "/api/delivery-day/sheet": {
            "get": {
                "tags": ["Delivery"],
                "summary": "Printable check-in sheet for today",
                "security": [{"Session": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "Sheet file"}, "400": {"$ref": "#/responses/Error"}}
            }
        },
        "/api/shoppers": {
            "get": {
                "tags": ["Shoppers"],
                "summary": "List shoppers",
                "security": [{"Session": []}],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            },
            "put": {
                "tags": ["Shoppers"],
                "summary": "Replace the shopper table",
                "security": [{"Session": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateShoppersRequest"}}
                ],
                "responses": {"200": {"$ref": "#/responses/OK"}, "409": {"$ref": "#/responses/Error"}}
            }
        },
        "/api/roster": {
            "get": {
                "tags": ["Realtime"],
                "summary": "Operators currently connected",
                "security": [{"Session": []}],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            }
        },
        "/api/session": {
            "get": {
                "tags": ["Realtime"],
                "summary": "The caller's session",
                "security": [{"Session": []}],
                "responses": {"200": {"$ref": "#/responses/OK"}}
            }
        }
    },
    "responses": {
        "OK": {"description": "Success", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
        "Error": {"description": "Failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
    },
    "definitions": {
        "SaveFulfillmentRequest": {
            "type": "object",
            "required": ["distribution", "family_name"],
            "properties": {
                "distribution": {"type": "string", "format": "date"},
                "family_name": {"type": "string"},
                "appt_day": {"type": "integer", "minimum": 1, "maximum": 7},
                "appt_time": {"type": "string", "example": "08:15"},
                "notes": {"type": "string"},
                "fulfilled": {"type": "boolean"},
                "fulfillment_time": {"type": "string", "format": "date-time"}
            }
        },
        "ArrivalRequest": {
            "type": "object",
            "required": ["distribution", "family_name", "arrivalTime"],
            "properties": {
                "distribution": {"type": "string", "format": "date"},
                "family_name": {"type": "string"},
                "arrivalTime": {"type": "string"}
            }
        },
        "Shopper": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "family_name": {"type": "string"}
            }
        },
        "UpdateShoppersRequest": {
            "type": "object",
            "properties": {
                "shoppers": {"type": "array", "items": {"$ref": "#/definitions/Shopper"}}
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
