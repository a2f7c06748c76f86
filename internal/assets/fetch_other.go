//go:build !(js && wasm)

package assets

import "net/http"

func setFetchOptions(_ *http.Request) {}
