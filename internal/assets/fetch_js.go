//go:build js && wasm

package assets

import "net/http"

// setFetchOptions maps the request onto a CORS fetch without credentials.
// The js/wasm transport consumes these pseudo headers.
func setFetchOptions(req *http.Request) {
	req.Header.Set("js.fetch:mode", "cors")
	req.Header.Set("js.fetch:credentials", "omit")
}
