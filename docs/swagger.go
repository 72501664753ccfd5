// Package docs Wikifeed API
//
// Wikifeed is the content delivery pipeline behind a continuous-scroll
// article feed: it fetches articles from Wikipedia, deduplicates and
// buffers them ahead of consumption, and caches item metadata and
// images under strict memory bounds.
//
//	Schemes: http, https
//	Host: localhost:8080
//	BasePath: /api/v1
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs

import "github.com/swaggo/swag"

// @title Wikifeed API
// @version 1.0
// @description Content delivery pipeline for a continuous-scroll article feed

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func init() {
	swag.Register(swag.Name, &swag.Spec{
		InfoInstanceName: "swagger",
		SwaggerTemplate:  docTemplate,
	})
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Wikifeed API",
        "description": "Content delivery pipeline for a continuous-scroll article feed",
        "version": "1.0.0",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        }
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "paths": {
        "/health": {
            "get": {
                "description": "Health check endpoint",
                "summary": "Health Check",
                "operationId": "healthCheck",
                "responses": {
                    "200": {
                        "description": "Service is healthy",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "status": {
                                    "type": "string",
                                    "example": "healthy"
                                },
                                "service": {
                                    "type": "string",
                                    "example": "wikifeed"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/feed": {
            "get": {
                "description": "Get the current visible feed snapshot with loading and error state",
                "summary": "Get Feed Snapshot",
                "operationId": "getFeed",
                "responses": {
                    "200": {
                        "description": "Feed snapshot",
                        "schema": {
                            "$ref": "#/definitions/FeedSnapshot"
                        }
                    }
                }
            }
        },
        "/feed/more": {
            "post": {
                "description": "Extend the visible feed. Drains the look-ahead buffer first, falling back to a network fetch. A request arriving while a foreground request is in flight is dropped.",
                "summary": "Request More Items",
                "operationId": "requestMore",
                "parameters": [
                    {
                        "name": "initial",
                        "in": "query",
                        "required": false,
                        "type": "boolean",
                        "description": "Treat as the initial load, bypassing the buffer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Number of appended items plus the resulting snapshot"
                    }
                }
            }
        },
        "/feed/refresh": {
            "post": {
                "description": "Reset the feed (visible items, buffer, seen set) and immediately issue an initial fetch",
                "summary": "Refresh Feed",
                "operationId": "refreshFeed",
                "responses": {
                    "200": {
                        "description": "Number of appended items plus the resulting snapshot"
                    }
                }
            }
        },
        "/feed/status": {
            "get": {
                "description": "Get feed metadata: configuration, buffer level and cache occupancy",
                "summary": "Get Feed Status",
                "operationId": "getFeedStatus",
                "responses": {
                    "200": {
                        "description": "Feed metadata",
                        "schema": {
                            "$ref": "#/definitions/FeedInfo"
                        }
                    }
                }
            }
        },
        "/feed/items": {
            "get": {
                "description": "Look an item up in the metadata cache directly, bypassing the feed state",
                "summary": "Get Cached Item",
                "operationId": "getCachedItem",
                "parameters": [
                    {
                        "name": "id",
                        "in": "query",
                        "required": true,
                        "type": "integer",
                        "description": "Item identity"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Cached item",
                        "schema": {
                            "$ref": "#/definitions/ContentItem"
                        }
                    },
                    "404": {
                        "description": "Item not cached"
                    }
                }
            }
        },
        "/assets": {
            "get": {
                "description": "Fetch an image through the cost-weighted asset cache. Absent assets return 404 without affecting the feed pipeline.",
                "summary": "Get Asset",
                "operationId": "getAsset",
                "produces": ["image/jpeg"],
                "parameters": [
                    {
                        "name": "url",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Absolute image URL"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Downsampled JPEG payload"
                    },
                    "404": {
                        "description": "Asset unavailable"
                    }
                }
            }
        },
        "/config/language": {
            "post": {
                "description": "Signal a language change. The feed resets, rescopes its seen set and refreshes.",
                "summary": "Set Language",
                "operationId": "setLanguage",
                "responses": {
                    "202": {
                        "description": "Language change signalled"
                    }
                }
            }
        },
        "/config/topics": {
            "post": {
                "description": "Signal a topic selection change. The feed resets, rescopes its seen set and refreshes.",
                "summary": "Set Topics",
                "operationId": "setTopics",
                "responses": {
                    "202": {
                        "description": "Topic change signalled"
                    }
                }
            }
        },
        "/signals/memory-pressure": {
            "post": {
                "description": "Deliver a low-memory notification: the asset cache flushes entirely and the item cache halves its population",
                "summary": "Signal Memory Pressure",
                "operationId": "memoryPressure",
                "responses": {
                    "202": {
                        "description": "Memory pressure signalled"
                    }
                }
            }
        }
    },
    "definitions": {
        "ContentItem": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer",
                    "description": "Stable item identity"
                },
                "title": {
                    "type": "string",
                    "description": "Article title"
                },
                "extract": {
                    "type": "string",
                    "description": "Body excerpt"
                },
                "asset_url": {
                    "type": "string",
                    "description": "Optional image URL"
                },
                "source_url": {
                    "type": "string",
                    "description": "Canonical article URL"
                },
                "language": {
                    "type": "string",
                    "description": "Language code"
                }
            }
        },
        "FeedSnapshot": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ContentItem"
                    },
                    "description": "Visible items in delivery order"
                },
                "is_loading": {
                    "type": "boolean",
                    "description": "A foreground request is in flight"
                },
                "has_error": {
                    "type": "boolean",
                    "description": "The last foreground fetch failed"
                },
                "error_message": {
                    "type": "string",
                    "description": "Human-readable failure description"
                },
                "buffer_len": {
                    "type": "integer",
                    "description": "Look-ahead buffer occupancy"
                }
            }
        },
        "FeedInfo": {
            "type": "object",
            "properties": {
                "language": {
                    "type": "string"
                },
                "topics": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "visible_count": {
                    "type": "integer"
                },
                "buffer_len": {
                    "type": "integer"
                },
                "seen_count": {
                    "type": "integer"
                },
                "item_cache_len": {
                    "type": "integer"
                },
                "asset_cost": {
                    "type": "integer"
                }
            }
        }
    },
    "tags": [
        {
            "name": "Health",
            "description": "Health check endpoints"
        },
        {
            "name": "Feed",
            "description": "Visible feed and prefetch endpoints"
        },
        {
            "name": "Assets",
            "description": "Asset cache endpoints"
        },
        {
            "name": "Signals",
            "description": "Configuration and host environment signals"
        }
    ]
}`
