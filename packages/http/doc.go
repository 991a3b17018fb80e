// Package http provides the HTTP transport used to send hitdesk requests.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts, redirects, TLS validation and proxy
//   - Building wire requests from resolved model requests
//   - Ordered and repeated headers, cookies, query parameters and auth
//   - A timing breakdown (DNS, connect, TLS, wait, download) per response
//   - JSON pretty printing and path queries on response bodies
package http
