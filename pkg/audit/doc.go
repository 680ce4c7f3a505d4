// Package audit writes RFC5424 audit lines for cmsctl operations.
//
// # Event Types
//
//   - run: a plan run finished (or was aborted)
//   - step: one step of a run produced a result
//   - login: an /auth/login attempt against a CMS
//   - token: a static token was issued to a user
//
// # Usage
//
//	audit.Log(audit.LoginEvent{Email: email, Target: url, Success: true})
//
// Lines go to stderr. When AUDIT_DATABASE_URL (or JOURNAL_DATABASE_URL) is
// set, events are also inserted into the messages table. Set
// CMSCTL_AUDIT_ENABLED=false to turn auditing off.
package audit
