package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CD Sync API",
        "description": "Relays frontend form submissions to ClickDimensions with a persisted retry queue",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Forms", "description": "Form submission intake"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/forms/submit": {
            "post": {
                "tags": ["Forms"],
                "summary": "Accept a form submission for relay",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IntakeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "IntakeRequest": {
            "type": "object",
            "properties": {
                "actionUrl": {"type": "string"},
                "formFields": {"type": "object", "additionalProperties": {"type": "string"}},
                "visitorKey": {"type": "string"},
                "captchaToken": {"type": "string"}
            },
            "required": ["actionUrl", "formFields"]
        },
        "IntakeResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "jobId": {"type": "string"},
                "location": {"type": "string"},
                "lowRating": {"type": "boolean"},
                "errors": {"type": "object"}
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
                "error": {"$ref": "#/definitions/APIError"}
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
