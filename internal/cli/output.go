package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"

	"github.com/kbukum/reqkit/httpclient"
	"github.com/kbukum/reqkit/observability"
)

// palette defines the colors used for the different parts of the output
type palette struct {
	method      *color.Color
	url         *color.Color
	statusOK    *color.Color
	statusWarn  *color.Color
	statusError *color.Color
	headerKey   *color.Color
	headerValue *color.Color
	dim         *color.Color
}

func newPalette(noColor bool) *palette {
	p := &palette{
		method:      color.New(color.FgBlue, color.Bold),
		url:         color.New(color.FgCyan),
		statusOK:    color.New(color.FgGreen, color.Bold),
		statusWarn:  color.New(color.FgYellow, color.Bold),
		statusError: color.New(color.FgRed, color.Bold),
		headerKey:   color.New(color.FgYellow),
		headerValue: color.New(color.FgWhite),
		dim:         color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{p.method, p.url, p.statusOK, p.statusWarn, p.statusError, p.headerKey, p.headerValue, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

// status picks the color for a status code class
func (p *palette) status(code int) *color.Color {
	switch {
	case code >= 500:
		return p.statusError
	case code >= 300:
		return p.statusWarn
	default:
		return p.statusOK
	}
}

// SuccessIcon returns a checkmark symbol with appropriate color
func SuccessIcon(noColor bool) string {
	if noColor {
		return "✓"
	}
	return color.New(color.FgGreen).Sprint("✓")
}

// ErrorIcon returns an X symbol with appropriate color
func ErrorIcon(noColor bool) string {
	if noColor {
		return "✗"
	}
	return color.New(color.FgRed).Sprint("✗")
}

// printer writes requests and responses to the command output.
type printer struct {
	out     io.Writer
	verbose bool
	noColor bool
	colors  *palette
}

func newPrinter(out io.Writer, verbose, noColor bool) *printer {
	return &printer{out: out, verbose: verbose, noColor: noColor, colors: newPalette(noColor)}
}

// request prints the request line and headers in verbose mode.
func (p *printer) request(req *httpclient.Request) {
	if !p.verbose {
		return
	}
	fmt.Fprintf(p.out, "> %s %s\n", p.colors.method.Sprint(req.Method()), p.colors.url.Sprint(observability.Redact(req.URL())))
	for _, h := range req.Headers() {
		name, value := h.Name, h.Value
		if strings.EqualFold(name, "Authorization") {
			value = redactAuth(value)
		}
		fmt.Fprintf(p.out, "> %s: %s\n", p.colors.headerKey.Sprint(name), p.colors.headerValue.Sprint(value))
	}
	fmt.Fprintln(p.out, ">")
}

// response prints the response. With a query only the matching JSON value
// is printed.
func (p *printer) response(resp *httpclient.Response, query string) error {
	if p.verbose {
		fmt.Fprintf(p.out, "< %s %s %s\n",
			resp.Proto,
			p.colors.status(resp.StatusCode).Sprint(resp.Status),
			p.colors.dim.Sprintf("(%s)", resp.Duration.Round(time.Millisecond)))
		names := make([]string, 0, len(resp.Headers))
		for name := range resp.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, v := range resp.Headers[name] {
				fmt.Fprintf(p.out, "< %s: %s\n", p.colors.headerKey.Sprint(name), p.colors.headerValue.Sprint(v))
			}
		}
		fmt.Fprintln(p.out, "<")
	}

	if query != "" {
		result := resp.Path(query)
		if !result.Exists() {
			return usageError("no value at %q in response body", query)
		}
		fmt.Fprintln(p.out, result.String())
		return nil
	}

	body := resp.Body
	if strings.Contains(resp.Header("Content-Type"), "json") && gjson.ValidBytes(body) {
		body = []byte(gjson.GetBytes(body, "@pretty").Raw)
	}
	if len(body) == 0 {
		return nil
	}
	fmt.Fprint(p.out, string(body))
	if body[len(body)-1] != '\n' {
		fmt.Fprintln(p.out)
	}
	return nil
}

// redactAuth keeps the scheme of an Authorization value and hides the rest.
func redactAuth(value string) string {
	scheme, _, ok := strings.Cut(value, " ")
	if !ok {
		return "REDACTED"
	}
	return scheme + " REDACTED"
}
