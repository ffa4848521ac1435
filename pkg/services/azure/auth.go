package azure

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

const armScope = "https://management.azure.com/.default"

var subscriptionIDPattern = regexp.MustCompile(
	`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidSubscriptionID reports whether id is GUID-shaped. Fetchers reject
// malformed scopes before issuing any network call.
func ValidSubscriptionID(id string) bool {
	return subscriptionIDPattern.MatchString(id)
}

// Authorizer attaches credentials to an outgoing ARM request.
type Authorizer interface {
	Apply(req *http.Request) error
}

// AuthorizeFunc adapts a plain function to the Authorizer interface.
type AuthorizeFunc func(req *http.Request) error

func (f AuthorizeFunc) Apply(req *http.Request) error { return f(req) }

type ARMAuthorizer struct {
	cred azcore.TokenCredential
}

// NewARMAuthorizer wraps a token credential into an Authorizer scoped to the
// ARM management endpoint. Token caching and refresh are handled by the
// credential itself.
func NewARMAuthorizer(cred azcore.TokenCredential) *ARMAuthorizer {
	return &ARMAuthorizer{cred: cred}
}

func (a *ARMAuthorizer) Apply(req *http.Request) error {
	token, err := a.cred.GetToken(req.Context(), policy.TokenRequestOptions{
		Scopes: []string{armScope},
	})
	if err != nil {
		return fmt.Errorf("failed to acquire ARM token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	req.Header.Set("Content-Type", "application/json")
	return nil
}

// Validate acquires a token once so an unusable credential fails the run
// before any fetch begins.
func (a *ARMAuthorizer) Validate(ctx context.Context) error {
	_, err := a.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{armScope}})
	if err != nil {
		return fmt.Errorf("azure authentication failed: %w", err)
	}
	return nil
}
