package httpclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"

	"golang.org/x/net/publicsuffix"
)

// newCookieJar returns a jar holding cookies for target. Cookies are
// host-only and apply to every path.
func newCookieJar(target *url.URL, cookies map[string]string) (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		list = append(list, &http.Cookie{Name: name, Value: cookies[name], Path: "/"})
	}
	jar.SetCookies(target, list)
	return jar, nil
}
