package git

import "context"

// Pattern: Strategy -- swap git hosting platform
// without changing the review flow.

// Provider opens a review (pull or merge request) for a
// pushed publish branch on a git hosting platform.
type Provider interface {
	OpenReview(
		ctx context.Context,
		head string,
		base string,
		title string,
		body string,
	) error
}

// ProviderFunc adapts a plain function to the Provider
// interface. Arguments pass through untouched; an
// empty body means the review has no body.
type ProviderFunc func(
	ctx context.Context,
	head string,
	base string,
	title string,
	body string,
) error

// OpenReview delegates to the wrapped function.
func (f ProviderFunc) OpenReview(
	ctx context.Context,
	head string,
	base string,
	title string,
	body string,
) error {
	return f(ctx, head, base, title, body)
}
