// Package assist wraps the hosted language model behind typed flows. Each
// flow validates its input, renders a prompt, calls the model requesting
// strict JSON output and validates the decoded shape before returning it.
package assist

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Media is an inline attachment (photo, audio) passed alongside a prompt.
type Media struct {
	MIMEType string
	Data     []byte
}

// Request is one model invocation.
type Request struct {
	Prompt string
	Media  []Media
}

// Model generates a JSON document matching the shape of out for the given
// request. Implementations must fail rather than return partial output.
type Model interface {
	GenerateJSON(ctx context.Context, req Request, out any) error
}

// Unavailable is the Model used when no provider is configured. Every call
// fails with a clear error so dependent features degrade instead of panicking.
type Unavailable struct{}

func (Unavailable) GenerateJSON(context.Context, Request, any) error {
	return fmt.Errorf("assist model is not configured")
}

// ParseDataURI decodes a "data:<mime>;base64,<payload>" URI into Media.
func ParseDataURI(uri string) (Media, error) {
	if !strings.HasPrefix(uri, "data:") {
		return Media{}, fmt.Errorf("not a data URI")
	}
	rest := strings.TrimPrefix(uri, "data:")
	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return Media{}, fmt.Errorf("data URI must be base64 encoded")
	}
	mime := rest[:sep]
	if mime == "" {
		return Media{}, fmt.Errorf("data URI missing MIME type")
	}
	data, err := base64.StdEncoding.DecodeString(rest[sep+len(";base64,"):])
	if err != nil {
		return Media{}, fmt.Errorf("decode data URI payload: %w", err)
	}
	return Media{MIMEType: mime, Data: data}, nil
}
