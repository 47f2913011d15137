package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/realtime"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

// realtimeGate applies the REST authentication and project access rules to
// websocket clients.
type realtimeGate struct {
	tokens   *services.TokenService
	resolver middleware.IdentityResolver
	projects *services.ProjectService
}

// Authenticate accepts a bearer token in the Authorization header or, since
// browsers cannot set headers on a websocket handshake, the token query
// parameter.
func (g *realtimeGate) Authenticate(r *http.Request) (authz.Identity, error) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		token = r.URL.Query().Get("token")
	}
	token = strings.TrimSpace(token)
	if token == "" || g.tokens == nil {
		return authz.Identity{}, realtime.ErrUnauthenticated
	}

	claims, err := g.tokens.Parse(token)
	if err != nil {
		return authz.Identity{}, realtime.ErrUnauthenticated
	}

	return g.resolver.ResolveIdentity(r.Context(), claims.UserID)
}

func (g *realtimeGate) CanJoin(ctx context.Context, id authz.Identity, projectID uint64) bool {
	_, err := g.projects.Get(ctx, id, projectID)
	return err == nil
}
