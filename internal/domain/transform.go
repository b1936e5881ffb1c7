package domain

import "context"

type TransformResult struct {
	ok      bool
	content string
	message string
}

func TransformSucceeded(content string) TransformResult {
	return TransformResult{ok: true, content: content}
}

func TransformFailed(message string) TransformResult {
	return TransformResult{message: message}
}

func (r TransformResult) OK() bool        { return r.ok }
func (r TransformResult) Content() string { return r.content }
func (r TransformResult) Message() string { return r.message }

type Transformer interface {
	Transform(ctx context.Context, content string, linearFactor, dbEquivalent float64) TransformResult
}

type TransformFunc func(ctx context.Context, content string, linearFactor, dbEquivalent float64) TransformResult

func (f TransformFunc) Transform(ctx context.Context, content string, linearFactor, dbEquivalent float64) TransformResult {
	return f(ctx, content, linearFactor, dbEquivalent)
}
