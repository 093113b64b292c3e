package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Preschool Ops API",
        "description": "Branch scoping and admissions pipeline for multi-tenant preschools",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Leads", "description": "Admissions pipeline and kanban board"},
        {"name": "Branches", "description": "School campuses"},
        {"name": "Admin", "description": "Branch backfill operations"}
    ],
    "paths": {
        "/schools/{slug}/leads": {
            "get": {
                "tags": ["Leads"],
                "summary": "List admissions leads",
                "parameters": [{"$ref": "#/parameters/Slug"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown school", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Leads"],
                "summary": "Capture a new inquiry",
                "parameters": [
                    {"$ref": "#/parameters/Slug"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLeadRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ActionResult"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ActionResult"}}
                }
            }
        },
        "/schools/{slug}/leads/board": {
            "get": {
                "tags": ["Leads"],
                "summary": "Leads grouped into pipeline columns",
                "parameters": [{"$ref": "#/parameters/Slug"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{slug}/leads/{id}": {
            "patch": {
                "tags": ["Leads"],
                "summary": "Edit lead details",
                "parameters": [
                    {"$ref": "#/parameters/Slug"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateLeadRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ActionResult"}},
                    "404": {"description": "Lead not found", "schema": {"$ref": "#/definitions/ActionResult"}}
                }
            }
        },
        "/schools/{slug}/leads/{id}/status": {
            "patch": {
                "tags": ["Leads"],
                "summary": "Move a lead to another stage",
                "parameters": [
                    {"$ref": "#/parameters/Slug"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateLeadStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "Moved", "schema": {"$ref": "#/definitions/ActionResult"}},
                    "400": {"description": "Unknown stage", "schema": {"$ref": "#/definitions/ActionResult"}},
                    "404": {"description": "Lead not found", "schema": {"$ref": "#/definitions/ActionResult"}}
                }
            }
        },
        "/schools/{slug}/branches": {
            "get": {
                "tags": ["Branches"],
                "summary": "List branches of a school",
                "parameters": [{"$ref": "#/parameters/Slug"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Branches"],
                "summary": "Register a branch",
                "parameters": [
                    {"$ref": "#/parameters/Slug"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBranchRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Name in use", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{slug}/branches/{id}": {
            "delete": {
                "tags": ["Branches"],
                "summary": "Remove an unused branch",
                "parameters": [
                    {"$ref": "#/parameters/Slug"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Branch still referenced", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/branch-backfill": {
            "post": {
                "tags": ["Admin"],
                "summary": "Queue a branch backfill run",
                "parameters": [{"name": "dryRun", "in": "query", "type": "boolean"}],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not a platform operator", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A run is already queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/branch-backfill/last": {
            "get": {
                "tags": ["Admin"],
                "summary": "Last backfill report, last failure and queue state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not a platform operator", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "Slug": {"name": "slug", "in": "path", "required": true, "type": "string", "description": "School slug"}
    },
    "definitions": {
        "CreateLeadRequest": {
            "type": "object",
            "required": ["parentName", "childName", "source"],
            "properties": {
                "parentName": {"type": "string"},
                "childName": {"type": "string"},
                "source": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "notes": {"type": "string"},
                "preferredBranchId": {"type": "string"}
            }
        },
        "UpdateLeadRequest": {
            "type": "object",
            "properties": {
                "status": {"$ref": "#/definitions/LeadStatus"},
                "score": {"type": "integer", "minimum": 0, "maximum": 100},
                "parentName": {"type": "string"},
                "childName": {"type": "string"},
                "source": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "notes": {"type": "string"},
                "preferredBranchId": {"type": "string", "description": "Empty string clears the preference"}
            }
        },
        "UpdateLeadStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {"status": {"$ref": "#/definitions/LeadStatus"}}
        },
        "LeadStatus": {
            "type": "string",
            "enum": ["NEW", "CONTACTED", "INTERESTED", "TOUR_SCHEDULED", "ENROLLED"]
        },
        "CreateBranchRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "ActionResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "code": {"type": "string"},
                "data": {"type": "object"}
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
