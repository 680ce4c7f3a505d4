// Package report computes billing and payroll figures from time logs.
//
// Both reports read time_logs, projects and employees through the Directus
// items API and aggregate in memory. Amounts come from an expr formula so a
// deployment can change the pricing rule without a rebuild:
//
//	billing: minutes / 60 * hourly_rate       (per project and employee)
//	payroll: total_minutes / 60 * hourly_rate (per employee and month)
//
// Results are Tables, written as GitHub flavoured markdown or rendered to
// HTML with goldmark.
package report
