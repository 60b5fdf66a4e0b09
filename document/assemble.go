package document

import (
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/harborstack/apidocs/config"
	"github.com/harborstack/apidocs/logger"
	"github.com/harborstack/apidocs/metadata"
	"github.com/harborstack/apidocs/registry"
)

// Assemble produces the final document: the skeleton gains component schemas
// from the artifact's resolved models and one operation per route, taking
// live registrations first and filling in routes only the artifact knows
// about. Inputs are not mutated and repeated calls over identical inputs
// yield identical documents.
func Assemble(opts *config.Options, routes []registry.RouteDescriptor, artifact *metadata.Artifact, log logger.Logger) *openapi3.T {
	doc := BuildSkeleton(opts.Builder)

	models := metadata.ResolveModels(artifact, log)
	doc.Components.Schemas = CollectModels(models)
	ensureEnvelopeSchema(doc, opts.Response)

	sorted := mergeArtifactRoutes(routes, artifact)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].Method < sorted[j].Method
	})

	for i := range sorted {
		route := &sorted[i]
		method := findRouteMetadata(artifact, route)

		op := Decorate(route, method, opts.Response)
		applyGlobals(op, opts.Builder)

		oasPath, params := convertPath(route.Path)
		op.Parameters = append(pathParameters(params), op.Parameters...)

		setOperation(doc, oasPath, route.Method, op)
	}

	return doc
}

// mergeArtifactRoutes returns a fresh slice holding the live routes plus a
// descriptor synthesized for every artifact method that declares an HTTP
// binding without a matching live registration. Hosts that run the pipeline
// without a registry still get every introspected path documented.
func mergeArtifactRoutes(routes []registry.RouteDescriptor, artifact *metadata.Artifact) []registry.RouteDescriptor {
	merged := make([]registry.RouteDescriptor, len(routes))
	copy(merged, routes)
	if artifact == nil {
		return merged
	}

	seen := make(map[string]struct{}, len(routes))
	for i := range routes {
		seen[routeKey(routes[i].Method, routes[i].Path)] = struct{}{}
	}

	for ci := range artifact.Controllers {
		ctrl := &artifact.Controllers[ci]
		for mi := range ctrl.Methods {
			m := &ctrl.Methods[mi]
			if m.HTTPMethod == "" || m.Path == "" {
				continue
			}
			httpMethod := strings.ToUpper(m.HTTPMethod)
			key := routeKey(httpMethod, m.Path)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, registry.RouteDescriptor{
				Method:      httpMethod,
				Path:        m.Path,
				HandlerName: m.Name,
				ModuleName:  ctrl.Name,
				Package:     ctrl.Package,
			})
		}
	}
	return merged
}

func routeKey(method, path string) string {
	return method + " " + path
}

// ensureEnvelopeSchema guarantees the envelope reference resolves even when
// the envelope type lives outside the introspected source tree. A minimal
// open object stands in; an introspected definition always wins.
func ensureEnvelopeSchema(doc *openapi3.T, envelope config.ResponseOptions) {
	if !envelope.Enabled() {
		return
	}
	if _, ok := doc.Components.Schemas[envelope.Name]; ok {
		return
	}
	doc.Components.Schemas[envelope.Name] = &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:        &openapi3.Types{openapi3.TypeObject},
		Description: "Common response envelope",
	}}
}

// findRouteMetadata locates the introspected method for a live route by
// module and handler name. Missing metadata is normal: the route is still
// documented, just without comment-derived text.
func findRouteMetadata(artifact *metadata.Artifact, route *registry.RouteDescriptor) *metadata.Method {
	if artifact == nil || route.ModuleName == "" {
		return nil
	}
	ctrl := artifact.FindController(route.ModuleName)
	if ctrl == nil {
		return nil
	}
	return artifact.FindMethod(ctrl.Name, route.HandlerName)
}

// applyGlobals attaches the configured document-wide responses and
// parameters to one operation.
func applyGlobals(op *openapi3.Operation, builder config.BuilderOptions) {
	if len(builder.GlobalResponses) > 0 && op.Responses != nil {
		statuses := make([]string, 0, len(builder.GlobalResponses))
		for status := range builder.GlobalResponses {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)
		for _, status := range statuses {
			description := builder.GlobalResponses[status]
			op.Responses.Set(status, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription(description),
			})
		}
	}

	for _, p := range builder.GlobalParameters {
		schemaType := p.Schema
		if schemaType == "" {
			schemaType = openapi3.TypeString
		}
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: &openapi3.Parameter{
			Name:        p.Name,
			In:          p.In,
			Required:    p.Required,
			Description: p.Description,
			Schema:      &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{schemaType}}},
		}})
	}
}

// convertPath rewrites echo-style ":param" segments into OpenAPI "{param}"
// segments and returns the parameter names encountered, in order.
func convertPath(path string) (string, []string) {
	if !strings.Contains(path, ":") {
		return path, nil
	}

	segments := strings.Split(path, "/")
	var params []string
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			name := seg[1:]
			segments[i] = "{" + name + "}"
			params = append(params, name)
		}
	}
	return strings.Join(segments, "/"), params
}

func pathParameters(names []string) openapi3.Parameters {
	if len(names) == 0 {
		return nil
	}
	params := make(openapi3.Parameters, 0, len(names))
	for _, name := range names {
		params = append(params, &openapi3.ParameterRef{Value: &openapi3.Parameter{
			Name:     name,
			In:       openapi3.ParameterInPath,
			Required: true,
			Schema:   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeString}}},
		}})
	}
	return params
}

func setOperation(doc *openapi3.T, path, method string, op *openapi3.Operation) {
	item := doc.Paths.Value(path)
	if item == nil {
		item = &openapi3.PathItem{}
	}

	switch method {
	case http.MethodGet:
		item.Get = op
	case http.MethodPost:
		item.Post = op
	case http.MethodPut:
		item.Put = op
	case http.MethodPatch:
		item.Patch = op
	case http.MethodDelete:
		item.Delete = op
	case http.MethodHead:
		item.Head = op
	case http.MethodOptions:
		item.Options = op
	default:
		return
	}

	doc.Paths.Set(path, item)
}
