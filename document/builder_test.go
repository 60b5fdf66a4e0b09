package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborstack/apidocs/config"
)

func TestBuildSkeletonMinimal(t *testing.T) {
	doc := BuildSkeleton(config.BuilderOptions{Title: "Orders API", Version: "1.0.0"})

	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Equal(t, "Orders API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.Nil(t, doc.Info.Contact)
	assert.Nil(t, doc.Info.License)
	assert.Empty(t, doc.Servers)
	assert.Empty(t, doc.Tags)
	assert.Nil(t, doc.ExternalDocs)
	assert.Zero(t, doc.Paths.Len())
}

func TestBuildSkeletonFull(t *testing.T) {
	opts := config.BuilderOptions{
		Title:          "Orders API",
		Description:    "Order management",
		Version:        "2.1.0",
		TermsOfService: "https://example.com/terms",
		Contact:        &config.ContactOptions{Name: "Platform", Email: "platform@example.com"},
		License:        &config.LicenseOptions{Name: "MIT", URL: "https://opensource.org/licenses/MIT"},
		Servers: []config.ServerOptions{
			{
				URL:         "https://{env}.example.com",
				Description: "Main",
				Variables: map[string]config.ServerVariable{
					"env": {Default: "api", Enum: []string{"api", "staging"}},
				},
			},
		},
		Tags: []config.TagOptions{{Name: "orders", Description: "Order operations"}},
		SecuritySchemes: map[string]config.SecuritySchemeOptions{
			"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
			"oauth": {
				Type: "oauth2",
				Flows: &config.OAuthFlowOptions{
					AuthorizationURL: "https://auth.example.com/authorize",
					TokenURL:         "https://auth.example.com/token",
					Scopes:           map[string]string{"orders:read": "Read orders"},
				},
			},
		},
		Security:     []map[string][]string{{"bearer": {}}},
		ExternalDocs: &config.ExternalDocsOptions{URL: "https://docs.example.com"},
		Extensions:   map[string]any{"x-owner": "platform"},
	}

	doc := BuildSkeleton(opts)

	assert.Equal(t, "https://example.com/terms", doc.Info.TermsOfService)
	assert.Equal(t, "Platform", doc.Info.Contact.Name)
	assert.Equal(t, "MIT", doc.Info.License.Name)

	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "api", doc.Servers[0].Variables["env"].Default)

	require.Len(t, doc.Tags, 1)
	assert.Equal(t, "orders", doc.Tags[0].Name)

	bearer := doc.Components.SecuritySchemes["bearer"]
	require.NotNil(t, bearer)
	assert.Equal(t, "JWT", bearer.Value.BearerFormat)

	oauth := doc.Components.SecuritySchemes["oauth"]
	require.NotNil(t, oauth)
	require.NotNil(t, oauth.Value.Flows.AuthorizationCode)
	assert.Equal(t, "https://auth.example.com/token", oauth.Value.Flows.AuthorizationCode.TokenURL)

	require.Len(t, doc.Security, 1)
	assert.Contains(t, doc.Security[0], "bearer")

	assert.Equal(t, "https://docs.example.com", doc.ExternalDocs.URL)
	assert.Equal(t, "platform", doc.Extensions["x-owner"])
}

func TestBuildOAuthFlowPlacement(t *testing.T) {
	clientCreds := buildOAuthFlows(&config.OAuthFlowOptions{TokenURL: "https://auth/token"})
	require.NotNil(t, clientCreds.ClientCredentials)
	assert.Nil(t, clientCreds.AuthorizationCode)

	implicit := buildOAuthFlows(&config.OAuthFlowOptions{AuthorizationURL: "https://auth/authorize"})
	require.NotNil(t, implicit.Implicit)
	assert.Nil(t, implicit.ClientCredentials)
}
