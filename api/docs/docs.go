// Package docs registers the OpenAPI description served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "AussieBroadWAN Team",
			"url": "https://github.com/aussiebroadwan/tms"
		},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/api/auth/signin": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Sign in",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.SigninResponse"
						}
					},
					"400": {
						"description": "malformed body",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "bad credentials",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"429": {
						"description": "rate limited",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.SigninRequest"
						}
					}
				]
			}
		},
		"/api/auth/refresh-token": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Refresh tokens",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.RefreshTokenResponse"
						}
					},
					"400": {
						"description": "malformed body",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "unknown or expired refresh token",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.RefreshTokenRequest"
						}
					}
				]
			}
		},
		"/api/auth/register": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Register",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/authsdk.MessageResponse"
						}
					},
					"400": {
						"description": "validation failed",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"409": {
						"description": "username or email taken",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.RegisterRequest"
						}
					}
				]
			}
		},
		"/api/auth/logout": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Log out",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.MessageResponse"
						}
					},
					"401": {
						"description": "not authenticated",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/user/{id}": {
			"get": {
				"tags": [
					"Users"
				],
				"summary": "Get a user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.UserResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "user id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/task": {
			"post": {
				"tags": [
					"Tasks"
				],
				"summary": "Create a task",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/authsdk.TaskResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.CreateTaskRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/task/{id}": {
			"get": {
				"tags": [
					"Tasks"
				],
				"summary": "Get a task",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.TaskResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "not the author",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "task id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/task/{id}/status": {
			"put": {
				"tags": [
					"Tasks"
				],
				"summary": "Change task status",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.TaskResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "task id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.UpdateTaskStatusRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/comment": {
			"post": {
				"tags": [
					"Comments"
				],
				"summary": "Comment on a task",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/authsdk.CommentResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "task not found",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.CreateCommentRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/comment/{id}": {
			"delete": {
				"tags": [
					"Comments"
				],
				"summary": "Delete a comment",
				"produces": [
					"application/json"
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/authsdk.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "comment id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/livez": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Liveness probe",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "status, uptime, version",
						"schema": {
							"$ref": "#/definitions/authsdk.HealthResponse"
						}
					}
				}
			}
		},
		"/readyz": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Readiness probe",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "status, uptime, version, checks",
						"schema": {
							"$ref": "#/definitions/authsdk.HealthResponse"
						}
					},
					"503": {
						"description": "service not ready",
						"schema": {
							"$ref": "#/definitions/authsdk.HealthResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"authsdk.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"error_description": {
					"type": "string"
				}
			}
		},
		"authsdk.SigninRequest": {
			"type": "object",
			"properties": {
				"identifier": {
					"type": "string",
					"example": "alice@example.com"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"authsdk.SigninResponse": {
			"type": "object",
			"properties": {
				"accessToken": {
					"type": "string"
				},
				"refreshToken": {
					"type": "string"
				},
				"id": {
					"type": "integer"
				},
				"username": {
					"type": "string"
				},
				"roles": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"expiresIn": {
					"type": "integer"
				}
			}
		},
		"authsdk.RefreshTokenRequest": {
			"type": "object",
			"properties": {
				"refreshToken": {
					"type": "string"
				}
			}
		},
		"authsdk.RefreshTokenResponse": {
			"type": "object",
			"properties": {
				"refreshToken": {
					"type": "string"
				},
				"accessToken": {
					"type": "string"
				},
				"expiresIn": {
					"type": "integer"
				}
			}
		},
		"authsdk.RegisterRequest": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string",
					"example": "alice"
				},
				"email": {
					"type": "string",
					"example": "alice@example.com"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"authsdk.MessageResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				}
			}
		},
		"authsdk.UserResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"username": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"roles": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"createdAt": {
					"type": "string"
				}
			}
		},
		"authsdk.CreateTaskRequest": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"priority": {
					"type": "string",
					"example": "MEDIUM"
				}
			}
		},
		"authsdk.UpdateTaskStatusRequest": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string",
					"example": "IN_PROGRESS"
				}
			}
		},
		"authsdk.TaskResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"status": {
					"type": "string"
				},
				"priority": {
					"type": "string"
				},
				"authorId": {
					"type": "integer"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"authsdk.CreateCommentRequest": {
			"type": "object",
			"properties": {
				"taskId": {
					"type": "integer"
				},
				"content": {
					"type": "string"
				}
			}
		},
		"authsdk.CommentResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"taskId": {
					"type": "integer"
				},
				"authorId": {
					"type": "integer"
				},
				"content": {
					"type": "string"
				},
				"createdAt": {
					"type": "string"
				}
			}
		},
		"authsdk.HealthChecks": {
			"type": "object",
			"properties": {
				"database": {
					"type": "string"
				},
				"refresh_store": {
					"type": "string"
				},
				"signer": {
					"type": "string"
				}
			}
		},
		"authsdk.HealthResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"uptime": {
					"type": "string"
				},
				"version": {
					"type": "string"
				},
				"checks": {
					"$ref": "#/definitions/authsdk.HealthChecks"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "JWT access token. Format: \"Bearer {token}\".",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "TMS API",
	Description:      "Task management service with JWT access tokens and opaque refresh tokens.\n\nAccess tokens are HS256 signed and carry the username as subject.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
