// Package docs serves the OpenAPI 2.0 document for gin-swagger. It is kept in
// the swag registration layout and edited alongside the handler annotations.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Service banner",
                "operationId": "root",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ServiceStatus"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports 200 when the message store answers a ping, 503 otherwise.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "operationId": "health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthStatus"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.HealthStatus"}}
                }
            }
        },
        "/config/check": {
            "get": {
                "description": "Reports whether the upstream channel and the inference backend are configured and whether the store is connected. Secrets are never returned.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Integration configuration",
                "operationId": "configCheck",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ConfigStatus"}}
                }
            }
        },
        "/webhook/whatsapp": {
            "post": {
                "description": "Accepts a Twilio webhook delivery, stores and classifies the message and acknowledges with empty TwiML. A redelivered MessageSid is acknowledged without storing it again.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/xml"],
                "tags": ["Webhook"],
                "summary": "Receive a WhatsApp message",
                "operationId": "whatsappWebhook",
                "parameters": [
                    {"type": "string", "description": "Message text", "name": "Body", "in": "formData", "required": true},
                    {"type": "string", "example": "whatsapp:+5215550001111", "description": "Sender address", "name": "From", "in": "formData", "required": true},
                    {"type": "string", "description": "Provider message id", "name": "MessageSid", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "Empty TwiML response", "schema": {"type": "string"}},
                    "400": {"description": "Missing Body or From", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Ingestion failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/webhook/test": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Webhook"],
                "summary": "Webhook liveness",
                "operationId": "webhookTest",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WebhookStatus"}}
                }
            }
        },
        "/api/test-message": {
            "post": {
                "description": "Runs the full pipeline synchronously (save, classify, update). With an Idempotency-Key a retried request returns the original id and Idempotency-Replayed: true.",
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Ingest a message without the upstream channel",
                "operationId": "testMessage",
                "parameters": [
                    {"type": "string", "example": "2b0c9a52-retry-1", "description": "Idempotency key", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "description": "Message text", "name": "message", "in": "formData", "required": true},
                    {"type": "string", "description": "Sender address", "name": "sender", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.TestMessageResponse"},
                        "headers": {"Idempotency-Replayed": {"type": "string", "description": "true when answered from a previous request"}}
                    },
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Ingestion failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/messages": {
            "get": {
                "description": "Returns a page of stored messages with their classification. Unclassified messages show sentiment \"pending\" and topic \"unclassified\". Supports weak ETag via If-None-Match and may return 304.",
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "List messages (newest first)",
                "operationId": "listMessages",
                "parameters": [
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"maximum": 500, "minimum": 1, "type": "integer", "default": 50, "description": "Page size", "name": "limit", "in": "query"},
                    {"minimum": 0, "type": "integer", "default": 0, "description": "Records to skip", "name": "offset", "in": "query"},
                    {"minimum": 0, "type": "integer", "description": "Alias of offset", "name": "skip", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.MessageView"}},
                        "headers": {
                            "ETag": {"type": "string", "description": "Weak ETag for current result"},
                            "X-Total-Count": {"type": "integer", "description": "Total stored messages"}
                        }
                    },
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/messages/{id}": {
            "get": {
                "description": "Returns one stored message. An unclassified message shows sentiment \"pending\" and topic \"unclassified\".",
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Get a message by id",
                "operationId": "getMessage",
                "parameters": [
                    {"type": "string", "description": "Message id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.MessageView"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/sentiments": {
            "get": {
                "description": "Counts messages per sentiment. Unclassified messages are counted as pending; total is the number of stored messages.",
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Sentiment distribution",
                "operationId": "sentimentStats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SentimentStats"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/topics": {
            "get": {
                "description": "Counts messages per topic, most frequent first. Unclassified messages are reported under \"unclassified\".",
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Topic distribution",
                "operationId": "topicStats",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.TopicCount"}}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.MessageView": {
            "type": "object",
            "properties": {
                "external_ref": {"type": "string", "example": "SM0123456789abcdef"},
                "id": {"type": "string", "example": "5f0c7e3a-2d55-4a4e-9bb1-1f6b2f0a0c11"},
                "received_at": {"type": "string"},
                "sender": {"type": "string", "example": "whatsapp:+5215550001111"},
                "sentiment": {"type": "string", "example": "positive"},
                "summary": {"type": "string", "example": "El servicio fue excelente"},
                "text": {"type": "string", "example": "El servicio fue excelente"},
                "topic": {"type": "string", "example": "Customer Service"}
            }
        },
        "domain.SentimentStats": {
            "type": "object",
            "properties": {
                "negative": {"type": "integer", "example": 7},
                "neutral": {"type": "integer", "example": 3},
                "pending": {"type": "integer", "example": 1},
                "positive": {"type": "integer", "example": 12},
                "total": {"type": "integer", "example": 23}
            }
        },
        "domain.TopicCount": {
            "type": "object",
            "properties": {
                "count": {"type": "integer", "example": 9},
                "topic": {"type": "string", "example": "Customer Service"}
            }
        },
        "handlers.ConfigStatus": {
            "type": "object",
            "properties": {
                "database": {
                    "type": "object",
                    "properties": {
                        "connected": {"type": "boolean"},
                        "path": {"type": "string", "example": "sentiment.db"}
                    }
                },
                "openai": {
                    "type": "object",
                    "properties": {"configured": {"type": "boolean"}}
                },
                "twilio": {
                    "type": "object",
                    "properties": {
                        "configured": {"type": "boolean"},
                        "phone_number": {"type": "boolean"}
                    }
                }
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"description": "Stable, machine-readable code (see errors.go constants)", "type": "string", "example": "not_found"},
                "message": {"description": "Human-readable message (safe to show to users)", "type": "string", "example": "resource not found"},
                "request_id": {"description": "Correlates server logs and client errors", "type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "handlers.HealthStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "store": {"type": "string", "example": "connected"}
            }
        },
        "handlers.ServiceStatus": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "WhatsApp Sentiment Analysis API"},
                "status": {"type": "string", "example": "running"}
            }
        },
        "handlers.TestMessageResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "5f0c7e3a-2d55-4a4e-9bb1-1f6b2f0a0c11"},
                "message": {"type": "string", "example": "message processed"}
            }
        },
        "handlers.WebhookStatus": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "webhook endpoint is working"},
                "status": {"type": "string", "example": "ok"},
                "timestamp": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "WhatsApp Sentiment Analysis API",
	Description:      "Ingests WhatsApp messages, classifies sentiment and topic, and serves listings and aggregate statistics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
