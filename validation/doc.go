// Package validation checks configuration profiles before they are used.
//
// Struct tag validation uses the validator library, with field names taken
// from mapstructure tags so messages match the keys in configuration files.
// Two extra tags are registered: header_name for HTTP header field names and
// http_url for absolute http or https URLs.
//
// # Struct Tag Validation
//
//	type Profile struct {
//	    BaseURL string        `mapstructure:"base_url" validate:"omitempty,http_url"`
//	    Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
//	}
//	err := validation.Validate(profile)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Custom(user == "" || pass != "", "auth.password", "is required with auth.username")
//	err := v.Validate()
package validation
