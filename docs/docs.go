// Package docs holds the OpenAPI document served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Returns the service status, broker connectivity and subscription state",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Health"
                ],
                "summary": "Health Check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/handler.HealthResponse"
                        }
                    }
                }
            }
        },
        "/stats": {
            "get": {
                "description": "Total GPS messages processed and the one-minute rate",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Stats"
                ],
                "summary": "Throughput counters",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.StatsResponse"
                        }
                    }
                }
            }
        },
        "/ws/stats": {
            "get": {
                "description": "WebSocket that pushes the throughput counters periodically",
                "tags": [
                    "Stats"
                ],
                "summary": "Live throughput counters",
                "responses": {
                    "101": {
                        "description": "Switching Protocols"
                    }
                }
            }
        }
    },
    "definitions": {
        "handler.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "system_info": {
                    "$ref": "#/definitions/handler.SystemInfo"
                }
            }
        },
        "handler.StatsMessage": {
            "type": "object",
            "properties": {
                "per_minute": {
                    "type": "number"
                },
                "timestamp": {
                    "type": "string"
                },
                "total": {
                    "type": "integer"
                },
                "writes_in_flight": {
                    "type": "integer"
                }
            }
        },
        "handler.StatsResponse": {
            "type": "object",
            "properties": {
                "stats": {
                    "$ref": "#/definitions/handler.StatsMessage"
                }
            }
        },
        "handler.SystemInfo": {
            "type": "object",
            "properties": {
                "broker": {
                    "type": "string"
                },
                "service-name": {
                    "type": "string"
                },
                "subscribed": {
                    "type": "boolean"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3010",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "GPS Telemetry Ingestion API",
	Description:      "Monitoring surface of the GPS ingestion pipeline. Reports health, throughput counters and Prometheus metrics of the nav.pvt to time-series bridge.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
