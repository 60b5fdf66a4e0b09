package document

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/harborstack/apidocs/config"
	"github.com/harborstack/apidocs/metadata"
	"github.com/harborstack/apidocs/registry"
)

// summarySeparator splits a handler comment into summary and description.
const summarySeparator = "==="

// SplitComment splits comment text on the first separator occurrence: the
// part before becomes the summary, everything after the description, both
// trimmed. Without a separator the whole text is the description.
func SplitComment(text string) (summary, description string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	if before, after, found := strings.Cut(text, summarySeparator); found {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return "", text
}

// payload describes the success payload of one route, merged from the live
// descriptor and the introspected metadata. The descriptor wins when both
// carry a declared type.
type payload struct {
	schemaName string
	isArray    bool
	isGeneric  bool
	present    bool
}

func payloadFor(route *registry.RouteDescriptor, method *metadata.Method) payload {
	if route.ResponseType != nil {
		return payload{
			schemaName: registry.TypeName(route.ResponseType),
			isArray:    registry.IsArray(route.ResponseType),
			isGeneric:  registry.IsGenericObject(route.ResponseType),
			present:    true,
		}
	}
	if method != nil && method.ReturnType != nil {
		return payload{
			schemaName: method.ReturnType.Name,
			isArray:    method.ReturnType.IsArray,
			isGeneric:  method.ReturnType.IsGeneric,
			present:    true,
		}
	}
	return payload{}
}

// Decorate builds the operation for one route as a pure transform of its
// inputs; nothing on the route or the artifact is mutated. Comment text from
// the introspected method fills summary/description unless the descriptor
// already carries them, and the success response is wrapped in the common
// envelope unless the route or its module opted out.
func Decorate(route *registry.RouteDescriptor, method *metadata.Method, envelope config.ResponseOptions) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: operationID(route),
		Tags:        route.Tags,
		Summary:     route.Summary,
		Description: route.Description,
	}

	if op.Summary == "" && op.Description == "" && method != nil {
		op.Summary, op.Description = SplitComment(method.Comment)
	}

	op.Responses = successResponses(route, method, envelope)

	return op
}

func operationID(route *registry.RouteDescriptor) string {
	if route.ModuleName == "" {
		return route.HandlerName
	}
	return route.ModuleName + "_" + route.HandlerName
}

func successResponses(route *registry.RouteDescriptor, method *metadata.Method, envelope config.ResponseOptions) *openapi3.Responses {
	p := payloadFor(route, method)
	if !p.present {
		return openapi3.NewResponses()
	}

	var schema *openapi3.SchemaRef
	if envelope.Enabled() && !route.SkipEnvelope {
		schema = envelopeSchema(p, envelope)
	} else {
		schema = payloadSchemaRef(p)
	}

	response := openapi3.NewResponse().
		WithDescription("Successful response").
		WithJSONSchemaRef(schema)

	return openapi3.NewResponses(openapi3.WithStatus(200, &openapi3.ResponseRef{Value: response}))
}

// envelopeSchema composes the wrapped response: the envelope schema extended
// with an inline object that binds the payload property to the route's
// declared type.
func envelopeSchema(p payload, envelope config.ResponseOptions) *openapi3.SchemaRef {
	wrapper := &openapi3.Schema{
		Type: &openapi3.Types{openapi3.TypeObject},
		Properties: openapi3.Schemas{
			envelope.PayloadProperty: payloadSchemaRef(p),
		},
	}

	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		AllOf: openapi3.SchemaRefs{
			openapi3.NewSchemaRef(SchemaRefFor(envelope.Name), nil),
			{Value: wrapper},
		},
	}}
}

// payloadSchemaRef maps the declared payload type onto a schema. Generic
// object types stay an open object rather than referencing a named schema;
// array types nest their element the same way.
func payloadSchemaRef(p payload) *openapi3.SchemaRef {
	var elem *openapi3.SchemaRef
	if p.isGeneric || p.schemaName == "" {
		elem = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeObject}}}
	} else {
		elem = openapi3.NewSchemaRef(SchemaRefFor(p.schemaName), nil)
	}

	if p.isArray {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type:  &openapi3.Types{openapi3.TypeArray},
			Items: elem,
		}}
	}
	return elem
}
