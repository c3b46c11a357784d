// Package redo enforces per-project, per-tab regeneration limits.
//
// Every tab of a project carries a run counter that counts successful
// generations, the first one included. A plan with RedoLimitPerTab = N allows
// N+1 runs per tab: the gate admits a call while the counter is at most N.
//
// Callers wrap generation with Gate.Run so the counter only moves after the
// generation succeeded:
//
//	decision, err := gate.Run(ctx, projectID, redo.TabResearch, func(ctx context.Context) error {
//		return generateResearch(ctx, projectID)
//	})
//	if errors.Is(err, redo.ErrRedoLimitReached) {
//		// surface decision.Current and decision.Limit to the user
//	}
//
// The increment itself is delegated to the Store, which must apply it
// atomically (a single UPDATE ... SET n = n + 1 in Postgres).
package redo
