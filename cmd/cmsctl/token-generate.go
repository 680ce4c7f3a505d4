package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/directus"
)

// tokenGenerateCmd represents the token > generate command
var tokenGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Issue a static token to the authenticated user",
	Long: `
Issue a static token to the authenticated user

Use this command to set a new random 256 bit static token on the user the
credentials belong to. Any previous static token of that user stops working.
The token is printed on stdout and can be used as ADMIN_TOKEN afterwards.

Example:

$ export ADMIN_TOKEN="$(cmsctl token generate --email admin@example.com --password secret)"
`,
	Run: func(cmd *cobra.Command, args []string) {
		token, err := generateToken(cmd.Context(), mustConnection(cmd), audit.Default)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s", token)
	},
}

func init() {
	tokenCmd.AddCommand(tokenGenerateCmd)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func generateToken(ctx context.Context, conn connection, sink audit.Sink) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := connect(ctx, conn, sink)
	if err != nil {
		return "", err
	}

	me, err := client.Me(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read current user: %w", err)
	}

	event := audit.TokenEvent{Operator: conn.Operator(), UserID: me.ID, Target: client.BaseURL()}
	token, err := randomToken()
	if err == nil {
		_, err = client.UpdateUser(ctx, me.ID, map[string]interface{}{"token": token})
	}
	if err != nil {
		event.ErrorMessage = directus.Message(err)
		sink.Log(event)
		return "", fmt.Errorf("failed to set token on user %s: %w", me.ID, err)
	}

	event.Success = true
	sink.Log(event)
	return token, nil
}
