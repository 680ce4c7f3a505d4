// Package plan describes Directus administration work as YAML documents.
//
// A plan is an ordered list of steps. Each step has a Kind (create_collection,
// grant_permission, create_items, ...) and the parameters that kind needs.
// String values that begin with "=" are expressions evaluated at apply time
// (see Engine); "==" escapes a literal leading "=".
//
// Example:
//
//	name: tasks-icon
//	description: Fix the tasks collection icon
//	steps:
//	  - kind: update_collection
//	    collection: tasks
//	    meta: {icon: assignment, display_template: "{{name}}"}
//
// The plans that ship with cmsctl are embedded and available through Builtin.
package plan
