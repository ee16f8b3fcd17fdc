package genimage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Contract names for the two observed provider response shapes.
const (
	ContractBinary  = "binary"
	ContractB64JSON = "b64json"
)

// contract encodes one provider's request/response wire shape. The variant
// is fixed by configuration, never inferred from the response.
type contract interface {
	payload(prompt string) ([]byte, error)
	image(body []byte) ([]byte, error)
}

func contractFor(name string) (contract, error) {
	switch name {
	case ContractBinary, "":
		return binaryContract{}, nil
	case ContractB64JSON:
		return b64JSONContract{}, nil
	default:
		return nil, fmt.Errorf("unknown provider contract %q", name)
	}
}

// binaryContract matches providers that answer with the raw image bytes
// (the Hugging Face inference API).
type binaryContract struct{}

func (binaryContract) payload(prompt string) ([]byte, error) {
	return json.Marshal(map[string]any{
		"inputs": prompt,
		"options": map[string]any{
			"wait_for_model": true,
		},
	})
}

func (binaryContract) image(body []byte) ([]byte, error) {
	return body, nil
}

// b64JSONContract matches providers that answer with a JSON envelope
// carrying base64 image data.
type b64JSONContract struct{}

func (b64JSONContract) payload(prompt string) ([]byte, error) {
	return json.Marshal(map[string]any{
		"prompt": prompt,
		"n":      1,
	})
}

func (b64JSONContract) image(body []byte) ([]byte, error) {
	var envelope struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode provider envelope: %w", err)
	}
	if len(envelope.Data) == 0 || envelope.Data[0].B64JSON == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(envelope.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode provider image: %w", err)
	}
	return raw, nil
}
