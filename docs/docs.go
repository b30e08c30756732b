// Package docs holds the OpenAPI description served by Swagger UI.
//
// Regenerate with: swag init -g internal/http/router.go -o docs
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
        "/trips": {
            "post": {
                "operationId": "createTrip",
                "summary": "Create a trip",
                "tags": [
                    "Trips"
                ],
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID (demo header)",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Idempotency key",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "description": "Request body",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.CreateTripRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/domain.TripSpec"
                        }
                    },
                    "200": {
                        "description": "Replayed",
                        "schema": {
                            "$ref": "#/definitions/domain.TripSpec"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "get": {
                "operationId": "listTrips",
                "summary": "List trips",
                "tags": [
                    "Trips"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID (demo header)",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "description": "Page (1-based)",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Page size (max 100)",
                        "name": "page_size",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ListTripsResponse"
                        }
                    },
                    "304": {
                        "description": "Not Modified"
                    }
                }
            }
        },
        "/trips/{id}": {
            "get": {
                "operationId": "getTrip",
                "summary": "Get a trip",
                "tags": [
                    "Trips"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID (demo header)",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Trip ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.TripSpec"
                        }
                    },
                    "404": {
                        "description": "Trip not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/trips/{id}/generation": {
            "post": {
                "operationId": "requestGeneration",
                "summary": "Start itinerary generation",
                "tags": [
                    "Generation"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID (demo header)",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Trip ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.StatusResponse"
                        }
                    },
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/handlers.StatusResponse"
                        }
                    },
                    "404": {
                        "description": "Trip not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Busy or shutting down",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/trips/{id}/status": {
            "get": {
                "operationId": "getGenerationStatus",
                "summary": "Generation status",
                "tags": [
                    "Generation"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID (demo header)",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Trip ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.StatusResponse"
                        }
                    },
                    "404": {
                        "description": "Trip not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/trips/{id}/artifact": {
            "get": {
                "operationId": "getArtifact",
                "summary": "Generated itinerary",
                "tags": [
                    "Generation"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID (demo header)",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Trip ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ArtifactResponse"
                        }
                    },
                    "304": {
                        "description": "Not Modified"
                    },
                    "404": {
                        "description": "Artifact not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/trips/{id}/document": {
            "get": {
                "operationId": "getDocument",
                "summary": "Rendered itinerary document",
                "tags": [
                    "Generation"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID (demo header)",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Trip ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Document bytes"
                    },
                    "404": {
                        "description": "Document not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "operationId": "regenerateDocument",
                "summary": "Re-render the itinerary document",
                "tags": [
                    "Generation"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID (demo header)",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Trip ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ArtifactResponse"
                        }
                    },
                    "409": {
                        "description": "No artifact yet",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/places/photos": {
            "get": {
                "operationId": "getPlacePhotos",
                "summary": "Photos of a location",
                "tags": [
                    "Places"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Location name",
                        "name": "location",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "City or destination",
                        "name": "destination",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.PhotosResponse"
                        }
                    },
                    "400": {
                        "description": "Missing location",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/places/autocomplete": {
            "get": {
                "operationId": "autocompleteDestination",
                "summary": "Destination suggestions",
                "tags": [
                    "Places"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Partial destination",
                        "name": "query",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.AutocompleteResponse"
                        }
                    }
                }
            }
        },
        "/costs/usage": {
            "get": {
                "operationId": "getCostUsage",
                "summary": "Today's API usage and estimated cost",
                "tags": [
                    "Costs"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/quota.Usage"
                        }
                    }
                }
            }
        },
        "/costs/recommendations": {
            "get": {
                "operationId": "getCostRecommendations",
                "summary": "Cost optimization advice",
                "tags": [
                    "Costs"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.RecommendationsResponse"
                        }
                    }
                }
            }
        },
        "/costs/hourly": {
            "get": {
                "operationId": "getCostHourly",
                "summary": "Hourly call counts per service",
                "tags": [
                    "Costs"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Hours back (1-24)",
                        "name": "hours",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/quota.HourlyUsage"
                        }
                    }
                }
            }
        },
        "/history": {
            "post": {
                "operationId": "addHistory",
                "summary": "Record a past trip",
                "tags": [
                    "Personalization"
                ],
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID (demo header)",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "description": "Request body",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.AddHistoryRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/domain.TripHistory"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "get": {
                "operationId": "listHistory",
                "summary": "Recent past trips",
                "tags": [
                    "Personalization"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID (demo header)",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "description": "Max items (1-50)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.HistoryResponse"
                        }
                    }
                }
            }
        },
        "/landmarks": {
            "post": {
                "operationId": "addLandmark",
                "summary": "Curate a landmark",
                "tags": [
                    "Personalization"
                ],
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.AddLandmarkRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/domain.Landmark"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "get": {
                "operationId": "listLandmarks",
                "summary": "Landmarks of a destination",
                "tags": [
                    "Personalization"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Destination",
                        "name": "destination",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "description": "Max items (1-50)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.LandmarksResponse"
                        }
                    },
                    "400": {
                        "description": "Missing destination",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.Landmark": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "destination": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "best_time_to_visit": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                }
            }
        },
        "domain.LocationEnrichment": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "maps_link": {
                    "type": "string"
                },
                "place_id": {
                    "type": "string"
                },
                "photos": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "domain.PlaceSuggestion": {
            "type": "object",
            "properties": {
                "description": {
                    "type": "string"
                },
                "place_id": {
                    "type": "string"
                },
                "main_text": {
                    "type": "string"
                },
                "secondary_text": {
                    "type": "string"
                }
            }
        },
        "domain.TripHistory": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "user_id": {
                    "type": "string"
                },
                "destination": {
                    "type": "string"
                },
                "trip_date": {
                    "type": "string"
                },
                "rating": {
                    "type": "integer"
                },
                "notes": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                }
            }
        },
        "domain.TripSpec": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "user_id": {
                    "type": "string"
                },
                "destination": {
                    "type": "string"
                },
                "country": {
                    "type": "string"
                },
                "duration_days": {
                    "type": "integer"
                },
                "total_budget": {
                    "type": "string",
                    "example": "900.00"
                },
                "traveler_count": {
                    "type": "integer"
                },
                "interests": {
                    "type": "string"
                },
                "transport_pref": {
                    "type": "string"
                },
                "experience_style": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        },
        "handlers.AddHistoryRequest": {
            "type": "object",
            "properties": {
                "destination": {
                    "type": "string"
                },
                "trip_date": {
                    "type": "string"
                },
                "rating": {
                    "type": "integer"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "handlers.AddLandmarkRequest": {
            "type": "object",
            "properties": {
                "destination": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "best_time_to_visit": {
                    "type": "string"
                }
            }
        },
        "handlers.ArtifactResponse": {
            "type": "object",
            "properties": {
                "trip_id": {
                    "type": "string"
                },
                "content": {
                    "type": "string"
                },
                "source": {
                    "type": "string"
                },
                "locations": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.LocationEnrichment"
                    }
                },
                "document_url": {
                    "type": "string"
                },
                "document_type": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        },
        "handlers.AutocompleteResponse": {
            "type": "object",
            "properties": {
                "suggestions": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.PlaceSuggestion"
                    }
                }
            }
        },
        "handlers.CreateTripRequest": {
            "type": "object",
            "properties": {
                "destination": {
                    "type": "string"
                },
                "country": {
                    "type": "string"
                },
                "duration_days": {
                    "type": "integer"
                },
                "total_budget": {
                    "type": "string",
                    "example": "900.00"
                },
                "traveler_count": {
                    "type": "integer"
                },
                "interests": {
                    "type": "string"
                },
                "transport_pref": {
                    "type": "string"
                },
                "experience_style": {
                    "type": "string"
                }
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {
                    "type": "string"
                },
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "handlers.HistoryResponse": {
            "type": "object",
            "properties": {
                "history": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.TripHistory"
                    }
                }
            }
        },
        "handlers.LandmarksResponse": {
            "type": "object",
            "properties": {
                "landmarks": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.Landmark"
                    }
                }
            }
        },
        "handlers.ListTripsResponse": {
            "type": "object",
            "properties": {
                "trips": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.TripSpec"
                    }
                },
                "pagination": {
                    "$ref": "#/definitions/handlers.Pagination"
                }
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total": {
                    "type": "integer"
                },
                "total_pages": {
                    "type": "integer"
                },
                "has_next": {
                    "type": "boolean"
                }
            }
        },
        "handlers.PhotosResponse": {
            "type": "object",
            "properties": {
                "location": {
                    "type": "string"
                },
                "place_id": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                },
                "maps_link": {
                    "type": "string"
                },
                "photos": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "handlers.RecommendationsResponse": {
            "type": "object",
            "properties": {
                "recommendations": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "handlers.StatusResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string",
                    "enum": [
                        "generating",
                        "completed",
                        "error"
                    ]
                },
                "message": {
                    "type": "string"
                },
                "source": {
                    "type": "string"
                },
                "attempts": {
                    "type": "integer"
                }
            }
        },
        "quota.CacheStats": {
            "type": "object",
            "properties": {
                "hits": {
                    "type": "integer"
                },
                "misses": {
                    "type": "integer"
                },
                "hit_rate": {
                    "type": "number"
                }
            }
        },
        "quota.HourlyUsage": {
            "type": "object",
            "properties": {
                "labels": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "series": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "array",
                        "items": {
                            "type": "integer"
                        }
                    }
                }
            }
        },
        "quota.ServiceUsage": {
            "type": "object",
            "properties": {
                "calls": {
                    "type": "integer"
                },
                "limit": {
                    "type": "integer"
                },
                "remaining": {
                    "type": "integer"
                },
                "estimated_cost": {
                    "type": "number"
                }
            }
        },
        "quota.Usage": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string"
                },
                "services": {
                    "type": "object",
                    "additionalProperties": {
                        "$ref": "#/definitions/quota.ServiceUsage"
                    }
                },
                "total_cost": {
                    "type": "number"
                },
                "cache": {
                    "$ref": "#/definitions/quota.CacheStats"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Trip Planner API",
	Description:      "Cost-aware itinerary generation with place enrichment and document rendering.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
