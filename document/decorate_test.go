package document

import (
	"reflect"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborstack/apidocs/config"
	"github.com/harborstack/apidocs/metadata"
	"github.com/harborstack/apidocs/registry"
)

type orderDto struct {
	ID string `json:"id"`
}

func testEnvelope() config.ResponseOptions {
	return config.ResponseOptions{Name: "CommonResponse", PayloadProperty: "data"}
}

func TestSplitComment(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantSummary string
		wantDesc    string
	}{
		{
			name:        "summary and description",
			text:        "Get order === Retrieves a single order by id.",
			wantSummary: "Get order",
			wantDesc:    "Retrieves a single order by id.",
		},
		{
			name:        "first separator wins",
			text:        "A === B === C",
			wantSummary: "A",
			wantDesc:    "B === C",
		},
		{
			name:     "no separator is description only",
			text:     "Retrieves a single order.",
			wantDesc: "Retrieves a single order.",
		},
		{
			name: "empty text",
			text: "   ",
		},
		{
			name:     "separator with empty summary",
			text:     " === only description",
			wantDesc: "only description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, desc := SplitComment(tt.text)
			assert.Equal(t, tt.wantSummary, summary)
			assert.Equal(t, tt.wantDesc, desc)
		})
	}
}

func successSchema(t *testing.T, op *openapi3.Operation) *openapi3.SchemaRef {
	t.Helper()
	resp := op.Responses.Status(200)
	require.NotNil(t, resp)
	media := resp.Value.Content["application/json"]
	require.NotNil(t, media)
	return media.Schema
}

func TestDecorateWrapsResponseInEnvelope(t *testing.T) {
	route := &registry.RouteDescriptor{
		Method:       "GET",
		Path:         "/orders/:id",
		HandlerName:  "getOrder",
		ModuleName:   "orders",
		ResponseType: reflect.TypeOf(orderDto{}),
	}
	method := &metadata.Method{
		Name:    "getOrder",
		Comment: "Get order === Retrieves a single order by id.",
	}

	op := Decorate(route, method, testEnvelope())

	assert.Equal(t, "Get order", op.Summary)
	assert.Equal(t, "Retrieves a single order by id.", op.Description)
	assert.Equal(t, "orders_getOrder", op.OperationID)

	schema := successSchema(t, op)
	require.Len(t, schema.Value.AllOf, 2)
	assert.Equal(t, "#/components/schemas/CommonResponse", schema.Value.AllOf[0].Ref)

	wrapper := schema.Value.AllOf[1].Value
	payload := wrapper.Properties["data"]
	require.NotNil(t, payload)
	assert.Equal(t, "#/components/schemas/orderDto", payload.Ref)
}

func TestDecorateSkipMarkerSuppressesEnvelope(t *testing.T) {
	route := &registry.RouteDescriptor{
		Method:       "GET",
		Path:         "/orders/:id",
		HandlerName:  "getOrder",
		ResponseType: reflect.TypeOf(orderDto{}),
		SkipEnvelope: true,
	}

	op := Decorate(route, nil, testEnvelope())

	schema := successSchema(t, op)
	assert.Nil(t, schema.Value)
	assert.Equal(t, "#/components/schemas/orderDto", schema.Ref)
}

func TestDecorateGenericObjectStaysOpen(t *testing.T) {
	route := &registry.RouteDescriptor{
		Method:       "GET",
		Path:         "/health",
		HandlerName:  "health",
		ResponseType: reflect.TypeOf(map[string]any{}),
	}

	op := Decorate(route, nil, testEnvelope())

	schema := successSchema(t, op)
	require.Len(t, schema.Value.AllOf, 2)
	payload := schema.Value.AllOf[1].Value.Properties["data"]
	require.NotNil(t, payload)
	assert.Empty(t, payload.Ref)
	assert.True(t, payload.Value.Type.Is("object"))
}

func TestDecorateArrayResponse(t *testing.T) {
	route := &registry.RouteDescriptor{
		Method:       "GET",
		Path:         "/orders",
		HandlerName:  "listOrders",
		ResponseType: reflect.TypeOf([]orderDto{}),
	}

	op := Decorate(route, nil, testEnvelope())

	schema := successSchema(t, op)
	payload := schema.Value.AllOf[1].Value.Properties["data"]
	require.NotNil(t, payload)
	assert.True(t, payload.Value.Type.Is("array"))
	assert.Equal(t, "#/components/schemas/orderDto", payload.Value.Items.Ref)
}

func TestDecorateWithoutResponseType(t *testing.T) {
	route := &registry.RouteDescriptor{
		Method:      "DELETE",
		Path:        "/orders/:id",
		HandlerName: "deleteOrder",
	}

	op := Decorate(route, nil, testEnvelope())

	assert.Nil(t, op.Responses.Status(200))
}

func TestDecorateFallsBackToArtifactReturnType(t *testing.T) {
	route := &registry.RouteDescriptor{
		Method:      "GET",
		Path:        "/orders",
		HandlerName: "listOrders",
	}
	method := &metadata.Method{
		Name:       "listOrders",
		ReturnType: &metadata.TypeRef{Name: "OrderDto", IsArray: true},
	}

	op := Decorate(route, method, testEnvelope())

	schema := successSchema(t, op)
	payload := schema.Value.AllOf[1].Value.Properties["data"]
	require.NotNil(t, payload)
	assert.True(t, payload.Value.Type.Is("array"))
	assert.Equal(t, "#/components/schemas/OrderDto", payload.Value.Items.Ref)
}

func TestDecorateExplicitTextWinsOverComment(t *testing.T) {
	route := &registry.RouteDescriptor{
		Method:      "GET",
		Path:        "/orders",
		HandlerName: "listOrders",
		Summary:     "List orders",
	}
	method := &metadata.Method{Comment: "ignored === also ignored"}

	op := Decorate(route, method, testEnvelope())

	assert.Equal(t, "List orders", op.Summary)
	assert.Empty(t, op.Description)
}

func TestDecorateWithoutEnvelopeConfigured(t *testing.T) {
	route := &registry.RouteDescriptor{
		Method:       "GET",
		Path:         "/orders/:id",
		HandlerName:  "getOrder",
		ResponseType: reflect.TypeOf(orderDto{}),
	}

	op := Decorate(route, nil, config.ResponseOptions{})

	schema := successSchema(t, op)
	assert.Equal(t, "#/components/schemas/orderDto", schema.Ref)
}
