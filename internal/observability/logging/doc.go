// Package logging builds the slog logger shared by the API and the worker
// and carries request and batch run IDs through context.
//
//	logger := logging.NewLogger()
//	ctx = logging.ContextWithRunID(ctx, runID)
//	logging.ForSubscriber(ctx, logger, sub.ID).Info("episode delivered")
//
// Log lines produced inside a batch carry run_id. Lines produced inside one
// subscriber's pipeline also carry subscriber_id and, on failure, stage.
package logging
