package cli

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kbukum/reqkit/httpclient"
	"github.com/kbukum/reqkit/logger"
)

// requestFlags configure a single request.
type requestFlags struct {
	headers       []string
	cookies       []string
	user          string
	bearer        string
	preemptive    bool
	insecure      bool
	trustStore    string
	storePassword string
	noRedirects   bool
	timeout       time.Duration
	data          string
	contentType   string
}

func (f *requestFlags) register(fs *pflag.FlagSet, withBody bool) {
	fs.StringArrayVarP(&f.headers, "header", "H", nil, `HTTP header "Name: value" (can be used multiple times)`)
	fs.StringArrayVarP(&f.cookies, "cookie", "b", nil, `cookie "name=value" (can be used multiple times)`)
	fs.StringVarP(&f.user, "user", "u", "", `Basic credentials "user:password", sent when the server asks`)
	fs.StringVar(&f.bearer, "bearer", "", "Bearer token for the Authorization header")
	fs.BoolVar(&f.preemptive, "preemptive", false, "Send Basic credentials without waiting for a challenge")
	fs.BoolVarP(&f.insecure, "insecure", "k", false, "Trust any server certificate")
	fs.StringVar(&f.trustStore, "trust-store", "", "PEM bundle or PKCS#12 store with trusted CA certificates")
	fs.StringVar(&f.storePassword, "trust-store-password", "", "Password of a PKCS#12 trust store")
	fs.BoolVar(&f.noRedirects, "no-redirects", false, "Return 3xx responses instead of following them")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "Request timeout (default from the profile, 30s)")
	if withBody {
		fs.StringVarP(&f.data, "data", "d", "", `Request body; "@file" reads a file, "@-" reads stdin`)
		fs.StringVar(&f.contentType, "content-type", "application/json", "Content type of the request body")
	}
}

// target resolves raw against the base URL of the selected profile.
func (a *app) target(raw string) (string, error) {
	profile, err := a.settings.Profile(a.flags.profile)
	if err != nil {
		return "", err
	}
	return profile.ResolveURL(raw), nil
}

// options turns the flags into request options on top of the selected
// profile. Flags win over profile values.
func (f *requestFlags) options(cmd *cobra.Command, a *app) ([]httpclient.EntityOption, error) {
	profile, err := a.settings.Profile(a.flags.profile)
	if err != nil {
		return nil, err
	}

	opts := []httpclient.EntityOption{
		httpclient.WithConfig(profile),
		httpclient.WithLogger(logger.Get(httpLogger)),
	}
	if a.metrics != nil {
		opts = append(opts, httpclient.WithMetrics(a.metrics))
	}
	if cmd.Flags().Changed("timeout") {
		opts = append(opts, httpclient.WithTimeout(f.timeout))
	}

	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, usageError(`invalid header %q, expected "Name: value"`, h)
		}
		opts = append(opts, httpclient.WithHeader(strings.TrimSpace(name), strings.TrimSpace(value)))
	}
	for _, c := range f.cookies {
		name, value, ok := strings.Cut(c, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, usageError(`invalid cookie %q, expected "name=value"`, c)
		}
		opts = append(opts, httpclient.WithCookie(strings.TrimSpace(name), value))
	}

	if f.user != "" {
		username, password, _ := strings.Cut(f.user, ":")
		opts = append(opts, httpclient.WithBasicAuth(username, password))
	}
	if f.preemptive {
		opts = append(opts, httpclient.WithPreemptiveAuth())
	}
	if f.bearer != "" {
		opts = append(opts, httpclient.WithBearerAuth(f.bearer))
	}
	if f.noRedirects {
		opts = append(opts, httpclient.WithDisabledRedirects())
	}

	switch {
	case f.insecure && f.trustStore != "":
		return nil, usageError("--insecure and --trust-store are mutually exclusive")
	case f.insecure:
		opts = append(opts, httpclient.WithTrustAllCertificates())
	case f.trustStore != "":
		opts = append(opts, httpclient.WithTrustStore(f.trustStore, f.storePassword))
	}

	if cmd.Flags().Changed("data") {
		body, err := readData(cmd, f.data)
		if err != nil {
			return nil, err
		}
		opts = append(opts, httpclient.WithBody(body, f.contentType))
	}
	return opts, nil
}

// readData resolves the --data value, reading "@file" and "@-".
func readData(cmd *cobra.Command, data string) ([]byte, error) {
	switch {
	case data == "@-":
		return io.ReadAll(cmd.InOrStdin())
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, usageError("read request body: %v", err)
		}
		return b, nil
	}
	return []byte(data), nil
}
