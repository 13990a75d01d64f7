package outbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

var errSubjectNotFound = errors.New("schema subject not found")

// SchemaRegistryClient registers JSON schemas with a Confluent compatible registry.
type SchemaRegistryClient struct {
	client *resty.Client
}

// NewSchemaRegistryClient returns a client for the registry at baseURL.
func NewSchemaRegistryClient(baseURL string) *SchemaRegistryClient {
	return &SchemaRegistryClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetHeader("Accept", "application/vnd.schemaregistry.v1+json"),
	}
}

type schemaIDResponse struct {
	ID int `json:"id"`
}

// EnsureSchema returns the id of the latest schema under subject, registering
// schema when the subject does not exist yet.
func (c *SchemaRegistryClient) EnsureSchema(ctx context.Context, subject, schema string) (int, error) {
	id, err := c.latest(ctx, subject)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, errSubjectNotFound) {
		return 0, err
	}
	return c.register(ctx, subject, schema)
}

func (c *SchemaRegistryClient) latest(ctx context.Context, subject string) (int, error) {
	var out schemaIDResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/subjects/" + url.PathEscape(subject) + "/versions/latest")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return 0, errSubjectNotFound
	}
	if resp.IsError() {
		return 0, fmt.Errorf("schema registry status %d: %s", resp.StatusCode(), resp.String())
	}
	return out.ID, nil
}

func (c *SchemaRegistryClient) register(ctx context.Context, subject, schema string) (int, error) {
	var out schemaIDResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/vnd.schemaregistry.v1+json").
		SetBody(map[string]any{"schemaType": "JSON", "schema": schema}).
		SetResult(&out).
		Post("/subjects/" + url.PathEscape(subject) + "/versions")
	if err != nil {
		return 0, err
	}
	if resp.IsError() {
		return 0, fmt.Errorf("schema registry register status %d: %s", resp.StatusCode(), resp.String())
	}
	return out.ID, nil
}
