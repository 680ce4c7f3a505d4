// Package launcher runs the Directus CMS as a child process.
//
// The child is started as NODE_BINARY DIRECTUS_CLI start with the current
// environment, where PORT, HOST and PUBLIC_URL are replaced by the resolved
// configuration. Standard streams are attached, SIGINT and SIGTERM are
// forwarded, and the child's exit code becomes the launcher's.
//
//	l := launcher.New(config.Get())
//	code, err := l.Run(ctx)
//	os.Exit(code)
//
// Waiter polls /server/health and backs both "cmsctl wait" and the
// launcher's --wait flag.
package launcher
