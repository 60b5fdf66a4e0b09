// Package document assembles the OpenAPI document: a skeleton from the
// configured metadata, component schemas from resolved models, and per-route
// operations decorated with introspected comment text.
package document

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/harborstack/apidocs/config"
)

// BuildSkeleton maps the configured document metadata onto an empty document.
// Absent optional fields leave the corresponding document field untouched, so
// a minimal configuration yields a minimal document. Paths and component
// schemas are filled in later by Assemble.
func BuildSkeleton(opts config.BuilderOptions) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:          opts.Title,
			Description:    opts.Description,
			Version:        opts.Version,
			TermsOfService: opts.TermsOfService,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}

	if opts.Contact != nil {
		doc.Info.Contact = &openapi3.Contact{
			Name:  opts.Contact.Name,
			URL:   opts.Contact.URL,
			Email: opts.Contact.Email,
		}
	}

	if opts.License != nil {
		doc.Info.License = &openapi3.License{
			Name: opts.License.Name,
			URL:  opts.License.URL,
		}
	}

	for _, s := range opts.Servers {
		doc.Servers = append(doc.Servers, buildServer(s))
	}

	for _, t := range opts.Tags {
		doc.Tags = append(doc.Tags, &openapi3.Tag{Name: t.Name, Description: t.Description})
	}

	if len(opts.SecuritySchemes) > 0 {
		doc.Components.SecuritySchemes = openapi3.SecuritySchemes{}
		for name, scheme := range opts.SecuritySchemes {
			doc.Components.SecuritySchemes[name] = &openapi3.SecuritySchemeRef{Value: buildSecurityScheme(scheme)}
		}
	}

	for _, req := range opts.Security {
		requirement := openapi3.SecurityRequirement{}
		for name, scopes := range req {
			requirement[name] = scopes
		}
		doc.Security = append(doc.Security, requirement)
	}

	if opts.ExternalDocs != nil {
		doc.ExternalDocs = &openapi3.ExternalDocs{
			URL:         opts.ExternalDocs.URL,
			Description: opts.ExternalDocs.Description,
		}
	}

	if len(opts.Extensions) > 0 {
		doc.Extensions = make(map[string]any, len(opts.Extensions))
		for key, value := range opts.Extensions {
			doc.Extensions[key] = value
		}
	}

	return doc
}

func buildServer(s config.ServerOptions) *openapi3.Server {
	server := &openapi3.Server{
		URL:         s.URL,
		Description: s.Description,
	}
	if len(s.Variables) > 0 {
		server.Variables = make(map[string]*openapi3.ServerVariable, len(s.Variables))
		for name, v := range s.Variables {
			server.Variables[name] = &openapi3.ServerVariable{
				Default:     v.Default,
				Enum:        v.Enum,
				Description: v.Description,
			}
		}
	}
	return server
}

func buildSecurityScheme(s config.SecuritySchemeOptions) *openapi3.SecurityScheme {
	scheme := &openapi3.SecurityScheme{
		Type:             s.Type,
		Scheme:           s.Scheme,
		BearerFormat:     s.BearerFormat,
		In:               s.In,
		Name:             s.Name,
		Description:      s.Description,
		OpenIdConnectUrl: s.OpenIDConnectURL,
	}
	if s.Flows != nil {
		scheme.Flows = buildOAuthFlows(s.Flows)
	}
	return scheme
}

// buildOAuthFlows places the flat flow configuration into the flow slot its
// URLs imply: both URLs mean authorization code, a token URL alone means
// client credentials, an authorization URL alone means implicit.
func buildOAuthFlows(f *config.OAuthFlowOptions) *openapi3.OAuthFlows {
	flow := &openapi3.OAuthFlow{
		AuthorizationURL: f.AuthorizationURL,
		TokenURL:         f.TokenURL,
		RefreshURL:       f.RefreshURL,
		Scopes:           f.Scopes,
	}

	flows := &openapi3.OAuthFlows{}
	switch {
	case f.AuthorizationURL != "" && f.TokenURL != "":
		flows.AuthorizationCode = flow
	case f.TokenURL != "":
		flows.ClientCredentials = flow
	default:
		flows.Implicit = flow
	}
	return flows
}
