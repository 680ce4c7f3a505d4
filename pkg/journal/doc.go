// Package journal records plan runs in PostgreSQL.
//
// Every non-dry-run apply creates a Run row in plan_runs and one Step row per
// executed step in plan_steps. The executor consults the journal for plan
// prerequisites ("requires") and for plans marked "once".
//
// The schema is managed by golang-migrate; see the db/migrations directory
// and "cmsctl db migrate". When no journal database is configured, NopStore
// is used and nothing is recorded.
package journal
