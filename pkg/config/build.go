package config

import (
	"github.com/vitalvas/radauth/pkg/auth"
	"github.com/vitalvas/radauth/pkg/client"
	"github.com/vitalvas/radauth/pkg/log"
)

// Build assembles an authenticator with one endpoint per configured server
func Build(settings auth.FailoverSettings, logger log.Logger) (*auth.Authenticator, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	servers, err := client.NewEndpoints(settings, logger)
	if err != nil {
		return nil, err
	}

	logger.Infof("configured %d RADIUS servers, failover on exception=%t, on authentication failure=%t",
		len(servers), settings.FailoverOnException, settings.FailoverOnAuthenticationFailure)

	return auth.NewAuthenticator(servers, settings.Policy(), logger)
}

// LoadAuthenticator loads path and builds the authenticator it describes
func LoadAuthenticator(path string, logger log.Logger) (*File, *auth.Authenticator, error) {
	file, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	settings, err := file.Settings()
	if err != nil {
		return nil, nil, err
	}

	authenticator, err := Build(settings, logger)
	if err != nil {
		return nil, nil, err
	}
	return file, authenticator, nil
}
