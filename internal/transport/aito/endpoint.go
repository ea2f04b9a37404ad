package aito

import (
	"fmt"
	"slices"

	"github.com/AitoDotAI/aito-demo/internal/domain"
)

// Endpoint is a query endpoint under /api/v1.
type Endpoint string

// Query endpoints.
const (
	EndpointQuery     Endpoint = "_query"
	EndpointRecommend Endpoint = "_recommend"
	EndpointPredict   Endpoint = "_predict"
	EndpointRelate    Endpoint = "_relate"
	EndpointBatch     Endpoint = "_batch"
	EndpointAggregate Endpoint = "_aggregate"
)

var endpoints = []Endpoint{
	EndpointQuery, EndpointRecommend, EndpointPredict,
	EndpointRelate, EndpointBatch, EndpointAggregate,
}

// Endpoints returns the supported query endpoints.
func Endpoints() []Endpoint {
	return slices.Clone(endpoints)
}

// ValidEndpoint reports whether name is a supported query endpoint.
func ValidEndpoint(name string) bool {
	return slices.Contains(endpoints, Endpoint(name))
}

// ParseEndpoint validates an endpoint name.
func ParseEndpoint(name string) (Endpoint, error) {
	if !ValidEndpoint(name) {
		return "", fmt.Errorf("%w: unknown endpoint %q", domain.ErrInvalidRequest, name)
	}
	return Endpoint(name), nil
}

// Table names in the demo dataset.
const (
	TableProducts    = "products"
	TableUsers       = "users"
	TableVisits      = "visits"
	TableContexts    = "contexts"
	TableImpressions = "impressions"
	TableInvoices    = "invoices"
	TableEmployees   = "employees"
	TableGLCodes     = "glCodes"
	TablePrompts     = "prompts"
	TableAnswers     = "answers"
	TableQuestions   = "questions"
)
