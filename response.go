package aislookup

import "encoding/json"

type errorPayload struct {
	Call  string `json:"call"`
	Error string `json:"error"`
}

func buildErrorPayload(call, message string) []byte {
	b, _ := json.Marshal(errorPayload{Call: call, Error: message})
	return b
}
