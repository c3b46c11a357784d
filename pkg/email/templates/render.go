// Package templates renders templ components into email bodies.
package templates

import (
	"context"
	"errors"
	"strings"

	"github.com/a-h/templ"
)

// ErrRenderFailed wraps any error returned by a component.
var ErrRenderFailed = errors.New("email: failed to render template")

// Render renders tpl to a string. A nil component is an error, not an
// empty body.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	if tpl == nil {
		return "", errors.Join(ErrRenderFailed, errors.New("nil component"))
	}
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}
	return sb.String(), nil
}
