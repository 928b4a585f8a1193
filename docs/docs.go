// Package docs holds the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag/v2"

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
        "/api/v1/subscription": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Return the tenant's subscription record as last reported by Stripe",
                "produces": ["application/json"],
                "tags": ["subscription"],
                "summary": "Get the tenant subscription",
                "operationId": "getSubscription",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/application_billing.SubscriptionView"}}}
                            ]
                        }
                    },
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/api/v1/subscription/check-limit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Decide whether the tenant may perform an action under its plan.\nA denial is a 200 with allowed=false; the caller decides how to surface the upgrade.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["subscription"],
                "summary": "Check a plan limit",
                "operationId": "checkSubscriptionLimit",
                "parameters": [
                    {
                        "description": "Action to check",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.CheckLimitRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/billing.LimitDecision"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/api/v1/subscription/usage": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Return the tenant's plan, its limits and current usage",
                "produces": ["application/json"],
                "tags": ["subscription"],
                "summary": "Get plan usage",
                "operationId": "getSubscriptionUsage",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/application_billing.UsageSummary"}}}
                            ]
                        }
                    },
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "operationId": "getHealth",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/health/ready": {
            "get": {
                "description": "Any failing dependency makes the service unready",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "operationId": "getHealthReady",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/internal/admin/session": {
            "post": {
                "description": "Verify admin credentials and set the session cookie. Attempts are rate limited per client IP.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Sign in as an admin",
                "operationId": "createAdminSession",
                "parameters": [
                    {
                        "description": "Admin credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.AdminLoginRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/dto.AdminSessionResponse"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            },
            "delete": {
                "description": "Revoke the current admin session and clear the cookie",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Sign out",
                "operationId": "deleteAdminSession",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/internal/admin/webhooks": {
            "get": {
                "security": [{"AdminSession": []}],
                "description": "Page through recorded webhook events, newest first",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List webhook events",
                "operationId": "listWebhookEvents",
                "parameters": [
                    {"minimum": 1, "type": "integer", "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "description": "Page size", "name": "page_size", "in": "query"},
                    {"enum": ["pending", "processed", "failed"], "type": "string", "description": "Event status", "name": "status", "in": "query"},
                    {"type": "string", "description": "Event type, e.g. customer.subscription.updated", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/dto.WebhookEventResponse"}}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/internal/admin/webhooks/purge": {
            "post": {
                "security": [{"AdminSession": []}],
                "description": "Delete processed events older than the retention window",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Purge old webhook events",
                "operationId": "purgeWebhookEvents",
                "parameters": [
                    {
                        "description": "Retention override",
                        "name": "request",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/dto.PurgeWebhooksRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/dto.PurgeWebhooksResponse"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/internal/admin/webhooks/retry": {
            "post": {
                "security": [{"AdminSession": []}],
                "description": "Dispatch a recorded event again from its stored payload",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Retry a webhook event",
                "operationId": "retryWebhookEvent",
                "parameters": [
                    {
                        "description": "Event to retry",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.RetryWebhookRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/application_billing.WebhookResult"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/webhooks/stripe": {
            "post": {
                "description": "Verify the Stripe-Signature header, record the event once and dispatch it",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Receive a Stripe webhook",
                "operationId": "receiveStripeWebhook",
                "parameters": [
                    {"type": "string", "description": "Stripe signature header", "name": "Stripe-Signature", "in": "header", "required": true},
                    {"description": "Stripe event", "name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.StripeWebhookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.StripeWebhookResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/dto.StripeWebhookResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.StripeWebhookResponse"}}
                }
            }
        }
    },
    "definitions": {
        "application_billing.SubscriptionView": {
            "type": "object",
            "properties": {
                "cancelAtPeriodEnd": {"type": "boolean"},
                "currentPeriodEnd": {"type": "string"},
                "entitled": {"type": "boolean"},
                "priceId": {"type": "string"},
                "status": {"type": "string"},
                "tenantId": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "application_billing.UsageSummary": {
            "type": "object",
            "properties": {
                "limits": {"$ref": "#/definitions/billing.PlanLimits"},
                "plan": {"type": "string", "enum": ["FREE", "PRO"]},
                "tenantId": {"type": "string"},
                "usage": {"$ref": "#/definitions/billing.UsageSnapshot"}
            }
        },
        "application_billing.WebhookResult": {
            "type": "object",
            "properties": {
                "duplicate": {"type": "boolean"},
                "event_id": {"type": "string"},
                "event_type": {"type": "string"},
                "message": {"type": "string"},
                "processed": {"type": "boolean"},
                "status": {"type": "string"}
            }
        },
        "billing.LimitDecision": {
            "type": "object",
            "properties": {
                "allowed": {"type": "boolean"},
                "note": {"type": "string"},
                "reason": {"type": "string"},
                "upgradeRequired": {"type": "string"}
            }
        },
        "billing.PlanLimits": {
            "type": "object",
            "properties": {
                "aiSuggestionsPerDay": {"type": "integer", "description": "-1 means unlimited"},
                "maxProjects": {"type": "integer", "description": "-1 means unlimited"},
                "maxTeamMembers": {"type": "integer", "description": "-1 means unlimited"},
                "storageMB": {"type": "integer", "description": "-1 means unlimited"}
            }
        },
        "billing.UsageSnapshot": {
            "type": "object",
            "properties": {
                "aiSuggestionsToday": {"type": "integer"},
                "projects": {"type": "integer"},
                "storageMB": {"type": "number"},
                "teamMembers": {"type": "integer"}
            }
        },
        "dto.AdminLoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "maxLength": 255},
                "password": {"type": "string", "maxLength": 72}
            }
        },
        "dto.AdminSessionResponse": {
            "type": "object",
            "properties": {
                "admin_id": {"type": "string"},
                "email": {"type": "string"},
                "expires_at": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "dto.CheckLimitRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string", "maxLength": 64},
                "fileSize": {"type": "number", "minimum": 0},
                "file_size": {"type": "number", "minimum": 0}
            }
        },
        "dto.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/dto.ValidationDetail"}},
                "message": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "dto.Meta": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "dto.PurgeWebhooksRequest": {
            "type": "object",
            "properties": {
                "retention_days": {"type": "integer", "maximum": 3650, "minimum": 1}
            }
        },
        "dto.PurgeWebhooksResponse": {
            "type": "object",
            "properties": {
                "deleted": {"type": "integer"},
                "retention_days": {"type": "integer"}
            }
        },
        "dto.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "meta": {"$ref": "#/definitions/dto.Meta"},
                "success": {"type": "boolean"}
            }
        },
        "dto.RetryWebhookRequest": {
            "type": "object",
            "required": ["event_id"],
            "properties": {
                "event_id": {"type": "string", "maxLength": 255}
            }
        },
        "dto.StripeWebhookResponse": {
            "type": "object",
            "properties": {
                "event_id": {"type": "string"},
                "event_type": {"type": "string"},
                "message": {"type": "string"},
                "received": {"type": "boolean"}
            }
        },
        "dto.ValidationDetail": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dto.WebhookEventResponse": {
            "type": "object",
            "properties": {
                "attempts": {"type": "integer"},
                "created_at": {"type": "string"},
                "error": {"type": "string"},
                "event_id": {"type": "string"},
                "processed_at": {"type": "string"},
                "status": {"type": "string"},
                "type": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "AdminSession": {
            "description": "Admin session cookie issued by POST /internal/admin/session",
            "type": "apiKey",
            "name": "gridhub_admin_session",
            "in": "cookie"
        },
        "BearerAuth": {
            "description": "Tenant bearer token authentication. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "TheGridHub Billing API",
	Description:      "Plan limit checks for tenants, Stripe webhook ingestion and webhook event administration",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
