package generation

import "context"

// ProviderCall carries everything needed for one upstream generation
// request. Credentials come from the provider record resolved for the
// selected model.
type ProviderCall struct {
	BaseURL string
	APIKey  string
	Model   string
	Prompt  string
	Width   int
	Height  int
}

// ProviderResult is the usable output of an upstream call. At least one
// of URL and Base64 is set on success.
type ProviderResult struct {
	URL    string
	Base64 string
}

// Generator invokes an upstream image-generation endpoint. This is the
// only blocking step of a generation transaction; callers bound it with
// a context deadline.
type Generator interface {
	Generate(ctx context.Context, call ProviderCall) (ProviderResult, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, call ProviderCall) (ProviderResult, error)

func (f GeneratorFunc) Generate(ctx context.Context, call ProviderCall) (ProviderResult, error) {
	return f(ctx, call)
}
