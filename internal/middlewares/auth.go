package middlewares

import (
	"net/http"

	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

const (
	authErrorMessage    = "Authentication failed"
	authErrorLogHeader  = "Authentication error: "
	authorizationHeader = "Authorization"
	PSKClientIdHeader   = "x-agentic-backend-client-id"
	PSKTenantHeader     = "x-agentic-backend-tenant-id"
	PSKHeader           = "x-agentic-backend-psk"
)

// AuthMiddleware allows the passage of parameters into the Authenticate middleware
type AuthMiddleware struct {
	Secrets          map[string]interface{}
	JwtSigningSecret []byte
}

// Authenticate accepts either a tenant bearer token or service to service
// PSK headers, and attaches the resulting principal to the request context
func (amw *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r.Header.Get(authorizationHeader)); ok { // token auth
			tenant, err := verifyAccessToken(token, amw.JwtSigningSecret)
			if err != nil {
				logger.Log.WithFields(logrus.Fields{"error": err}).Debug("Authentication failure")
				http.Error(w, authErrorMessage, http.StatusUnauthorized)
				return
			}

			ctx := WithPrincipal(r.Context(), tokenPrincipal{tenantID: tenant})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// psk auth
		sc, err := newServiceCredentials(
			r.Header.Get(PSKClientIdHeader),
			r.Header.Get(PSKTenantHeader),
			r.Header.Get(PSKHeader),
		)
		if err != nil {
			logger.Log.WithFields(logrus.Fields{"error": err}).Debug("Authentication failure")
			http.Error(w, authErrorMessage, http.StatusUnauthorized)
			return
		}
		logger.Log.Debugf("Received service to service request from %v using tenant:%v", sc.clientID, sc.tenantID)
		validator := serviceCredentialsValidator{knownServiceCredentials: amw.Secrets}
		if err := validator.validate(sc); err != nil {
			logger.Log.WithFields(logrus.Fields{"error": err}).Debug("Authentication failure")
			http.Error(w, authErrorMessage, http.StatusUnauthorized)
			return
		}

		principal := serviceToServicePrincipal{tenantID: sc.tenantID, clientID: sc.clientID}

		ctx := WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
