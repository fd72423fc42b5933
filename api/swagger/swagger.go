// Package swagger registers the generated-by-hand API document describing
// the scheduling engine's HTTP surface (spec.md §6.1), mirroring the way the
// teacher project wires swaggo/swag without running its codegen step.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Scheduler Engine API",
        "description": "CSP/GA scheduling job queue and generation surface",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/scheduler/jobs": {
            "post": {
                "summary": "Submit a scheduling job",
                "responses": {
                    "202": {
                        "description": "Accepted"
                    }
                }
            }
        },
        "/api/v1/scheduler/jobs/{job_id}": {
            "get": {
                "summary": "Get a scheduling job's status",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/scheduler/generations": {
            "get": {
                "summary": "List schedule generations",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
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
