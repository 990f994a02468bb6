package pms

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// GraphQLError is one entry of a GraphQL "errors" array
type GraphQLError struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// GraphQLClient posts queries to a single GraphQL endpoint.
// It makes one attempt per call; callers own any retry policy.
type GraphQLClient struct {
	http *Client
	path string
}

// NewGraphQLClient wraps a resilient client; path is appended to its base URL
func NewGraphQLClient(client *Client, path string) *GraphQLClient {
	return &GraphQLClient{http: client, path: path}
}

// Execute runs a query or mutation and decodes "data" into out.
// Any non-empty "errors" fails with GRAPHQL_ERROR carrying the first message, even when
// data is also present. A response with neither errors nor data is INVALID_RESPONSE.
func (c *GraphQLClient) Execute(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	resp, err := c.http.DoOnce(ctx, Request{
		Operation:       operation,
		Method:          http.MethodPost,
		Path:            c.path,
		Body:            graphQLRequest{Query: query, Variables: variables, OperationName: operation},
		AcceptAnyStatus: true,
	})
	if err != nil {
		return err
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	var body graphQLResponse
	if err := resp.Decode(&body); err != nil {
		if !ok {
			return integration.NewHTTPError(resp.StatusCode, resp.Text())
		}
		return err
	}

	if len(body.Errors) > 0 {
		first := body.Errors[0]
		status := resp.StatusCode
		if ok {
			status = http.StatusBadGateway
		}
		return integration.NewIntegrationError(integration.CodeGraphQLError, first.Message, status)
	}
	if !ok {
		return integration.NewHTTPError(resp.StatusCode, resp.Text())
	}
	if len(body.Data) == 0 || string(body.Data) == "null" {
		return integration.NewInvalidResponseError("GraphQL response has neither data nor errors", nil)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body.Data, out); err != nil {
		return integration.NewInvalidResponseError("GraphQL data does not match the expected shape", err)
	}
	return nil
}
