package req

import (
	"encoding/json"
	"io"
)

// maxBodySize bounds request bodies read by Decode (1 MB)
const maxBodySize = 1 << 20

// Decode reads a JSON request body into T
func Decode[T any](body io.Reader) (T, error) {
	var payload T
	err := json.NewDecoder(io.LimitReader(body, maxBodySize)).Decode(&payload)
	if err != nil {
		return payload, err
	}
	return payload, nil
}
