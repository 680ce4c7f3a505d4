package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/directus"
	"github.com/directus-ops/cmsctl/pkg/plan/executor"
)

// connection holds what is needed to reach and authenticate against one
// Directus instance.
type connection struct {
	URL      string
	Token    string
	Email    string
	Password string
	Timeout  time.Duration
}

// Operator names who is acting, for the journal and audit trail.
func (c connection) Operator() string {
	if c.Token != "" {
		return "token"
	}
	return c.Email
}

// connectionFromFlags starts from the configuration and applies the
// persistent connection flags that were set.
func connectionFromFlags(cmd *cobra.Command) (connection, error) {
	cfg, err := config.Current()
	if err != nil {
		return connection{}, fmt.Errorf("invalid configuration: %w", err)
	}
	conn := connection{
		URL:      cfg.PublicURL,
		Token:    cfg.AdminToken,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Timeout:  cfg.RequestTimeout,
	}
	flags := cmd.Flags()
	if flags.Changed("url") {
		conn.URL, _ = flags.GetString("url")
	}
	if flags.Changed("token") {
		conn.Token, _ = flags.GetString("token")
	}
	if flags.Changed("email") {
		conn.Email, _ = flags.GetString("email")
		if !flags.Changed("token") {
			conn.Token = ""
		}
	}
	if flags.Changed("password") {
		conn.Password, _ = flags.GetString("password")
	}
	return conn, nil
}

// mustConnection is connectionFromFlags for Run funcs.
func mustConnection(cmd *cobra.Command) connection {
	conn, err := connectionFromFlags(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return conn
}

// connect returns an authenticated client. A static token is used as is;
// otherwise the email and password are exchanged at /auth/login and the
// attempt is audited.
func connect(ctx context.Context, conn connection, sink audit.Sink) (*directus.Client, error) {
	if conn.URL == "" {
		return nil, fmt.Errorf("no Directus URL configured (set PUBLIC_URL or --url)")
	}
	client := directus.New(conn.URL, directus.WithTimeout(conn.Timeout))

	if conn.Token != "" {
		client.SetToken(conn.Token)
		return client, nil
	}
	if conn.Email == "" || conn.Password == "" {
		return nil, fmt.Errorf("%w: set ADMIN_TOKEN or ADMIN_EMAIL and ADMIN_PASSWORD", executor.ErrAuthentication)
	}

	if err := login(ctx, client, conn, sink); err != nil {
		return nil, err
	}
	return client, nil
}

func login(ctx context.Context, client *directus.Client, conn connection, sink audit.Sink) error {
	_, err := client.Login(ctx, conn.Email, conn.Password)
	event := audit.LoginEvent{Email: conn.Email, Target: client.BaseURL(), Success: err == nil}
	if err != nil {
		event.ErrorMessage = directus.Message(err)
		sink.Log(event)
		return fmt.Errorf("%w: %s", executor.ErrAuthentication, directus.Message(err))
	}
	sink.Log(event)
	return nil
}

// tokenMargin is how long before it expires an access token is renewed.
const tokenMargin = time.Minute

// renewSession keeps a long-running login usable. An access token that
// expires within tokenMargin is refreshed, and if the refresh is rejected
// the credentials are exchanged again. Static tokens carry no expiry and
// are left alone.
func renewSession(ctx context.Context, client *directus.Client, conn connection, sink audit.Sink) error {
	exp, ok := client.TokenExpiry()
	if !ok || time.Until(exp) > tokenMargin {
		return nil
	}
	if _, err := client.Refresh(ctx); err == nil {
		return nil
	}
	if conn.Email == "" || conn.Password == "" {
		return fmt.Errorf("%w: access token expired at %s", executor.ErrAuthentication, exp.Format(time.RFC3339))
	}
	return login(ctx, client, conn, sink)
}
