package auth

import (
	"log/slog"

	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/errors"
	"github.com/go-oauth2/oauth2/v4/generates"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/models"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/go-oauth2/oauth2/v4/store"
	"github.com/golang-jwt/jwt/v5"
)

// NewAuthorizationServer creates and configures an OAuth 2.0 server for
// machine clients (the storefront backend, internal tooling). It issues HS256
// JWTs compatible with the gateway's JWT middleware.
func NewAuthorizationServer(jwtSecret, clientID, clientSecret string, logger *slog.Logger) *server.Server {
	manager := manage.NewDefaultManager()

	manager.MustTokenStorage(store.NewMemoryTokenStore())

	// Tokens are JWTs signed with the same secret the API middleware checks.
	manager.MapAccessGenerate(generates.NewJWTAccessGenerate("", []byte(jwtSecret), jwt.SigningMethodHS256))

	clientStore := store.NewClientStore()
	err := clientStore.Set(clientID, &models.Client{
		ID:     clientID,
		Secret: clientSecret,
		Domain: "http://localhost",
	})
	if err != nil {
		logger.Error("failed to set client in store", "error", err)
		return nil
	}
	manager.MapClientStorage(clientStore)

	srv := server.NewServer(server.NewConfig(), manager)

	// Client Credentials grant only.
	srv.SetClientInfoHandler(server.ClientFormHandler)

	srv.SetExtensionFieldsHandler(func(ti oauth2.TokenInfo) (fieldsValue map[string]interface{}) {
		fieldsValue = map[string]interface{}{
			"sub":   ti.GetClientID(),
			"roles": []string{"service"},
		}
		return
	})

	srv.SetInternalErrorHandler(func(err error) (re *errors.Response) {
		logger.Error("internal OAuth2 server error", "error", err)
		return
	})

	logger.Info("OAuth 2.0 server configured successfully")
	return srv
}
