// Package validator builds request validation from small rules.
//
// Each rule pairs a check with the error it reports. Apply runs them all
// and returns ValidationErrors naming every failed field:
//
//	err := validator.Apply(
//		validator.PositiveNum("tokens", req.Tokens),
//		validator.RequiredString("function_name", req.FunctionName),
//	)
//
// The HTTP layer renders ValidationErrors as 422 with per-field details.
package validator
