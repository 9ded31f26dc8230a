//go:build wasip1

// Command convgen-wasm-wasi is the WASI (wasip1) entrypoint for running the
// translation pipeline from any language that supports the WebAssembly
// System Interface, including the extraction-engine build tooling.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "document": <adapter parse tree>, "expression": "<text>", "kind": "ValueConv" }
//	stdout: { "name": "<id>", "hash": "<hash>", "source": "<go source>" }  on success
//	        { "error": "<message>" }                                        on failure (exit code 1)
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o convgen.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"document":{...},"expression":"$val / 256"}' | wasmtime convgen.wasm
package main

import (
	"encoding/json"
	"os"

	"github.com/photostructure/convgen"
	"github.com/photostructure/convgen/pkg/types"
)

type request struct {
	Document   json.RawMessage `json:"document"`
	Expression string          `json:"expression"`
	Kind       types.ExprKind  `json:"kind,omitempty"`
}

type response struct {
	Name   string `json:"name,omitempty"`
	Hash   string `json:"hash,omitempty"`
	Source string `json:"source,omitempty"`
	Error  string `json:"error,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}
	if req.Kind == "" {
		req.Kind = types.KindValueConv
	}

	art, err := convgen.Translate(req.Document, req.Expression, req.Kind)
	if err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}

	writeResponse(response{Name: art.Name, Hash: art.Hash, Source: art.Source}, 0)
}
