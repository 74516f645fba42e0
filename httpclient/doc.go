// Package httpclient builds and executes single HTTP requests for
// integration tests and tooling.
//
// A Request is assembled once from options and is immutable afterwards.
// Every Execute call builds its own transport and client, sends the request,
// reads the whole body into a Response and releases the connections.
//
// # Basic Usage
//
//	req, err := httpclient.Get("https://api.example.com/health",
//	    httpclient.WithHeader("X-Test", "1"),
//	    httpclient.WithBearerAuth(token),
//	)
//	if err != nil {
//	    return err
//	}
//	resp, err := req.Execute(ctx)
//
// # Bodies
//
// Only POST and PUT enclose an entity. WithBody is an EntityOption, which
// Get and Delete do not accept, so attaching a body to them does not
// compile. The dynamic constructor New checks the method at run time and
// fails with an UNSUPPORTED_OPERATION error instead.
//
//	req, err := httpclient.Post(url, httpclient.WithBody(payload, "application/json"))
//
// # TLS
//
//	httpclient.WithTrustAllCertificates()
//	httpclient.WithTrustStore("truststore.p12", "changeit")
//	httpclient.WithTrustStore("ca.pem", "", security.NoopHostnameVerifier)
//
// The last trust option wins.
//
// # Waiting
//
//	err := req.Waiters().OK().Timeout(30 * time.Second).Wait(ctx)
package httpclient
