// Package directus is a small client for the Directus admin REST API.
//
// The client covers the endpoints needed to bootstrap and migrate a Directus
// instance: authentication, collections, fields, relations, items, roles,
// permissions, dashboards, panels, users and the schema snapshot API.
//
// All responses are unwrapped from the {"data": ...} envelope. Non-2xx
// responses are returned as *APIError values, which can be inspected with
// IsNotFound, IsForbidden, IsUnauthorized and IsAlreadyExists.
//
// Example:
//
//	c := directus.New("http://localhost:8055")
//	if _, err := c.Login(ctx, email, password); err != nil {
//		return err
//	}
//	names, err := c.UserCollections(ctx)
package directus
