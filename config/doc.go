// Package config loads reqkit settings and request profiles.
//
// Values come from a YAML (or JSON/TOML) file, an optional .env file and
// REQKIT_* environment variables, in increasing order of precedence. Keys
// follow the mapstructure tags: REQKIT_LOGGING_LEVEL sets logging.level and
// REQKIT_PROFILES_STAGING_TIMEOUT sets profiles.staging.timeout.
//
// # Usage
//
//	settings, err := config.Load("reqkit", config.WithConfigFile("reqkit.yml"))
//	profile, err := settings.Profile("staging")
//	req, err := httpclient.Get(url, httpclient.WithConfig(profile))
package config
