package utils

import (
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/apex/log"
)

// JwksCreatePublicKey fetches the JWKS used to verify bearer tokens, e.g.
// the one published by the Supabase auth project, and keeps it refreshed.
func JwksCreatePublicKey(jwksURL string, refreshInterval time.Duration) (*keyfunc.JWKS, error) {
	options := keyfunc.Options{
		RefreshInterval: refreshInterval,
		RefreshErrorHandler: func(err error) {
			log.WithError(err).WithField("jwks", jwksURL).Error("jwks refresh failed")
		},
	}

	jwks, err := keyfunc.Get(jwksURL, options)
	if err != nil {
		return nil, err
	}
	return jwks, nil
}
