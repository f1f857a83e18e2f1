package middlewares

import (
	"errors"

	"github.com/sahulatai/agentic-backend/internal/domain"
)

type serviceCredentials struct {
	clientID string
	tenantID domain.TenantID
	psk      string
}

func newServiceCredentials(clientID, tenantID, psk string) (*serviceCredentials, error) {
	switch {
	case clientID == "":
		return nil, errors.New(authErrorLogHeader + "Missing " + PSKClientIdHeader + " header")
	case tenantID == "":
		return nil, errors.New(authErrorLogHeader + "Missing " + PSKTenantHeader + " header")
	case psk == "":
		return nil, errors.New(authErrorLogHeader + "Missing " + PSKHeader + " header")
	}

	tenant, err := domain.ParseTenantID(tenantID)
	if err != nil {
		return nil, errors.New(authErrorLogHeader + "Invalid " + PSKTenantHeader + " header")
	}

	return &serviceCredentials{
		clientID: clientID,
		tenantID: tenant,
		psk:      psk,
	}, nil
}

type serviceCredentialsValidator struct {
	knownServiceCredentials map[string]interface{}
}

func (scv *serviceCredentialsValidator) validate(sc *serviceCredentials) error {
	switch {
	case scv.knownServiceCredentials[sc.clientID] == nil:
		return errors.New(authErrorLogHeader + "Provided ClientID not attached to any known keys")
	case sc.psk != scv.knownServiceCredentials[sc.clientID]:
		return errors.New(authErrorLogHeader + "Provided PSK does not match known key for this client")
	}
	return nil
}
