// Package api is the HTTP adapter for the remote InsightGen analysis API.
//
// One Client implements every driven API port. Requests are throttled by a
// token bucket, tagged with an X-Request-ID, and carry the bearer token of
// the credentials snapshot passed in, if any. Responses are decoded into
// explicit wire types; optional fields the server omits stay nil.
package api
