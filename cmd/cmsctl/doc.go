// Command cmsctl launches a Directus CMS and manages its schema, access
// rules and content over the Directus REST API.
//
// # Architecture
//
// The command is organized around these packages:
//
//   - pkg/launcher: starts Directus as a child process
//   - pkg/server: diagnostic HTTP server
//   - pkg/directus: REST client for the admin API
//   - pkg/plan: YAML plans of schema, access and data steps
//   - pkg/plan/executor: applies plans step by step
//   - pkg/journal: records plan runs in PostgreSQL
//   - pkg/audit: RFC5424 audit events
//   - pkg/report: billing and payroll reports
//   - pkg/snapshot: schema snapshot repair
//   - pkg/config: configuration management
//
// # Quick Start
//
//	# Check the database Directus will use
//	cmsctl db check
//
//	# Start Directus, bootstrapping it first
//	cmsctl server --bootstrap --wait
//
//	# From another shell, once it is up
//	cmsctl plan apply --all
//
// # Environment Variables
//
//   - PORT, HOST, PUBLIC_URL: where Directus listens and is reached
//   - DB_CLIENT, DB_HOST, DB_PORT, DB_DATABASE, DB_USER, DB_PASSWORD: the Directus database
//   - KEY, SECRET: Directus signing secrets
//   - ADMIN_EMAIL, ADMIN_PASSWORD or ADMIN_TOKEN: credentials for plans and reports
//   - JOURNAL_DATABASE_URL: PostgreSQL connection string for the run journal
//   - CMSCTL_LOG_LEVEL: Log level (debug, info, warn, error)
package main
