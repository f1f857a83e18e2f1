package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/sahulatai/agentic-backend/internal/middlewares"
)

const (
	TOKEN_HEADER_CLIENT_NAME = middlewares.PSKClientIdHeader
	TOKEN_HEADER_TENANT_NAME = middlewares.PSKTenantHeader
	TOKEN_HEADER_PSK_NAME    = middlewares.PSKHeader
	authFailure              = "Authentication failed"
	SIGNING_SECRET           = "not-a-production-secret"
	EXPECTED_TENANT          = "6ca6a085-8d86-11eb-8bd1-f875a43f7183"
)

type testClaims struct {
	jwt.StandardClaims
	TokenType string `json:"type"`
}

func signToken(method jwt.SigningMethod, secret string, subject string, tokenType string, expiresAt time.Time) string {
	token := jwt.NewWithClaims(method, testClaims{
		StandardClaims: jwt.StandardClaims{Subject: subject, ExpiresAt: expiresAt.Unix()},
		TokenType:      tokenType,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		panic("Test error unable to sign token")
	}
	return signed
}

func GetTestHandler(expectedTenant string, expectedSubject string) http.HandlerFunc {
	fn := func(rw http.ResponseWriter, req *http.Request) {
		principal, ok := middlewares.GetPrincipal(req.Context())
		Expect(ok).To(Equal(true))
		Expect(principal.GetTenantID().String()).To(Equal(expectedTenant))
		Expect(principal.GetSubject()).To(Equal(expectedSubject))
	}

	return http.HandlerFunc(fn)
}

func boiler(req *http.Request, expectedStatusCode int, expectedBody string, expectedTenant string, expectedSubject string, amw *middlewares.AuthMiddleware) {
	rr := httptest.NewRecorder()
	handler := amw.Authenticate(GetTestHandler(expectedTenant, expectedSubject))
	handler.ServeHTTP(rr, req)

	Expect(rr.Code).To(Equal(expectedStatusCode))
	Expect(rr.Body.String()).To(Equal(expectedBody))
}

var _ = Describe("Auth", func() {
	var (
		req *http.Request
		amw *middlewares.AuthMiddleware
	)

	BeforeEach(func() {
		knownSecrets := make(map[string]interface{})
		knownSecrets["test_client_1"] = "12345"
		amw = &middlewares.AuthMiddleware{Secrets: knownSecrets, JwtSigningSecret: []byte(SIGNING_SECRET)}

		r, err := http.NewRequest("GET", "/api/agentic-backend/v1/connections", nil)
		if err != nil {
			panic("Test error unable to get new request")
		}
		req = r
	})

	Describe("Using psk authentication", func() {
		Context("With no missing psk headers", func() {
			It("Should return 200 when the key is correct", func() {
				req.Header.Add(TOKEN_HEADER_CLIENT_NAME, "test_client_1")
				req.Header.Add(TOKEN_HEADER_TENANT_NAME, EXPECTED_TENANT)
				req.Header.Add(TOKEN_HEADER_PSK_NAME, "12345")

				boiler(req, 200, "", EXPECTED_TENANT, "test_client_1", amw)
			})

			It("Should return a 401 when the key is incorrect", func() {
				req.Header.Add(TOKEN_HEADER_CLIENT_NAME, "test_client_1")
				req.Header.Add(TOKEN_HEADER_TENANT_NAME, EXPECTED_TENANT)
				req.Header.Add(TOKEN_HEADER_PSK_NAME, "678910")

				boiler(req, 401, authFailure+"\n", EXPECTED_TENANT, "", amw)
			})

			It("Should return a 401 when the client id is unknown", func() {
				req.Header.Add(TOKEN_HEADER_CLIENT_NAME, "test_client_nil")
				req.Header.Add(TOKEN_HEADER_TENANT_NAME, EXPECTED_TENANT)
				req.Header.Add(TOKEN_HEADER_PSK_NAME, "12345")

				boiler(req, 401, authFailure+"\n", EXPECTED_TENANT, "", amw)
			})

			It("Should return a 401 when the tenant id is not a uuid", func() {
				req.Header.Add(TOKEN_HEADER_CLIENT_NAME, "test_client_1")
				req.Header.Add(TOKEN_HEADER_TENANT_NAME, "0000001")
				req.Header.Add(TOKEN_HEADER_PSK_NAME, "12345")

				boiler(req, 401, authFailure+"\n", "dont care", "", amw)
			})
		})

		Context("With missing psk headers", func() {
			It("Should return 401 when the client id header is missing", func() {
				req.Header.Add(TOKEN_HEADER_TENANT_NAME, EXPECTED_TENANT)
				req.Header.Add(TOKEN_HEADER_PSK_NAME, "12345")

				boiler(req, 401, authFailure+"\n", "dont care", "", amw)
			})

			It("Should return 401 when the tenant header is missing", func() {
				req.Header.Add(TOKEN_HEADER_CLIENT_NAME, "test_client_1")
				req.Header.Add(TOKEN_HEADER_PSK_NAME, "12345")

				boiler(req, 401, authFailure+"\n", "dont care", "", amw)
			})

			It("Should return 401 when the psk header is missing", func() {
				req.Header.Add(TOKEN_HEADER_CLIENT_NAME, "test_client_1")
				req.Header.Add(TOKEN_HEADER_TENANT_NAME, EXPECTED_TENANT)

				boiler(req, 401, authFailure+"\n", "dont care", "", amw)
			})
		})
	})

	Describe("Using bearer token authentication", func() {
		Context("With a valid access token", func() {
			It("Should return 200 and expose the tenant from the subject", func() {
				token := signToken(jwt.SigningMethodHS256, SIGNING_SECRET, EXPECTED_TENANT, "access", time.Now().Add(time.Hour))
				req.Header.Add("Authorization", "Bearer "+token)

				boiler(req, 200, "", EXPECTED_TENANT, EXPECTED_TENANT, amw)
			})

			It("Should prefer the token over psk headers", func() {
				token := signToken(jwt.SigningMethodHS256, SIGNING_SECRET, EXPECTED_TENANT, "access", time.Now().Add(time.Hour))
				req.Header.Add("Authorization", "Bearer "+token)
				req.Header.Add(TOKEN_HEADER_CLIENT_NAME, "test_client_1")
				req.Header.Add(TOKEN_HEADER_TENANT_NAME, uuid.NewString())
				req.Header.Add(TOKEN_HEADER_PSK_NAME, "12345")

				boiler(req, 200, "", EXPECTED_TENANT, EXPECTED_TENANT, amw)
			})
		})

		Context("With an unacceptable token", func() {
			It("Should return 401 when the token has expired", func() {
				token := signToken(jwt.SigningMethodHS256, SIGNING_SECRET, EXPECTED_TENANT, "access", time.Now().Add(-time.Minute))
				req.Header.Add("Authorization", "Bearer "+token)

				boiler(req, 401, authFailure+"\n", "dont care", "", amw)
			})

			It("Should return 401 when the token is signed with another secret", func() {
				token := signToken(jwt.SigningMethodHS256, "some-other-secret", EXPECTED_TENANT, "access", time.Now().Add(time.Hour))
				req.Header.Add("Authorization", "Bearer "+token)

				boiler(req, 401, authFailure+"\n", "dont care", "", amw)
			})

			It("Should return 401 for a refresh token", func() {
				token := signToken(jwt.SigningMethodHS256, SIGNING_SECRET, EXPECTED_TENANT, "refresh", time.Now().Add(time.Hour))
				req.Header.Add("Authorization", "Bearer "+token)

				boiler(req, 401, authFailure+"\n", "dont care", "", amw)
			})

			It("Should return 401 when the subject is not a tenant id", func() {
				token := signToken(jwt.SigningMethodHS256, SIGNING_SECRET, "someone@example.com", "access", time.Now().Add(time.Hour))
				req.Header.Add("Authorization", "Bearer "+token)

				boiler(req, 401, authFailure+"\n", "dont care", "", amw)
			})

			It("Should return 401 when token authentication is not configured", func() {
				amw.JwtSigningSecret = nil
				token := signToken(jwt.SigningMethodHS256, SIGNING_SECRET, EXPECTED_TENANT, "access", time.Now().Add(time.Hour))
				req.Header.Add("Authorization", "Bearer "+token)

				boiler(req, 401, authFailure+"\n", "dont care", "", amw)
			})
		})
	})
})
