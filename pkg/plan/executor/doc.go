// Package executor applies plan documents to a running CMS.
//
// Steps run strictly in order, one request at a time. Each step reads the
// current state first and only sends the change when it is still needed, so
// re-applying a plan reports skips instead of failures.
//
// # Usage
//
//	exec := executor.NewExecutor(client, store).
//	    WithOperator(cfg.AdminEmail).
//	    WithReporter(console.NewReporter(os.Stdout))
//
//	result, err := exec.Apply(ctx, p, text)
//
// # Failure handling
//
// A failed step is logged, recorded and the run continues. A step marked
// required, or any step that fails with an authentication error, aborts the
// run. Unmet requires and re-applied once plans are refused before any step
// runs, unless forced.
// Plans that succeed through an Executor count alongside the journal, so
// one Executor can run a chain of plans without a journal database.
//
// # Dry run
//
// WithDryRun(true) performs reads but never sends a mutating request and
// does not write the journal. Steps that would change something report
// "planned".
package executor
