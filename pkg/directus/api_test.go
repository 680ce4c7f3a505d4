package directus_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/directus-ops/cmsctl/internal/cmstest"
	"github.com/directus-ops/cmsctl/pkg/directus"
)

func login(t *testing.T, cms *cmstest.Server) *directus.Client {
	t.Helper()
	client := directus.New(cms.URL())
	_, err := client.Login(context.Background(), cmstest.AdminEmail, cmstest.AdminPassword)
	require.NoError(t, err)
	return client
}

func TestLogin(t *testing.T) {
	cms := cmstest.New(t)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		client := directus.New(cms.URL())
		tokens, err := client.Login(ctx, cmstest.AdminEmail, cmstest.AdminPassword)
		require.NoError(t, err)
		assert.Equal(t, cmstest.AdminToken, tokens.AccessToken)
		assert.Equal(t, cmstest.AdminToken, client.Token())

		refreshed, err := client.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, cmstest.AdminToken, refreshed.AccessToken)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		client := directus.New(cms.URL())
		_, err := client.Login(ctx, cmstest.AdminEmail, "wrong")
		require.Error(t, err)
		assert.True(t, directus.IsUnauthorized(err))
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := directus.New(cms.URL()).Login(ctx, "", "")
		assert.Error(t, err)
	})

	t.Run("unauthenticated request", func(t *testing.T) {
		_, err := directus.New(cms.URL()).ListCollections(ctx)
		assert.True(t, directus.IsUnauthorized(err))
	})
}

func TestSchemaLifecycle(t *testing.T) {
	cms := cmstest.New(t)
	client := login(t, cms)
	ctx := context.Background()

	_, err := client.CreateCollection(ctx, directus.Collection{
		Collection: "customers",
		Meta:       map[string]interface{}{"icon": "people"},
	})
	require.NoError(t, err)

	_, err = client.CreateCollection(ctx, directus.Collection{Collection: "customers"})
	assert.True(t, directus.IsAlreadyExists(err))

	_, err = client.CreateField(ctx, "customers", directus.Field{Field: "customer_name", Type: "string"})
	require.NoError(t, err)

	names, err := client.FieldNames(ctx, "customers")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "customer_name"}, names)

	_, err = client.UpdateField(ctx, "customers", "customer_name", map[string]interface{}{
		"meta": map[string]interface{}{"width": "half"},
	})
	require.NoError(t, err)
	f, ok := cms.Field("customers", "customer_name")
	require.True(t, ok)
	assert.Equal(t, "half", f.Meta["width"])

	_, err = client.CreateCollection(ctx, directus.Collection{Collection: "projects"})
	require.NoError(t, err)
	_, err = client.CreateField(ctx, "projects", directus.Field{Field: "customer_id", Type: "integer"})
	require.NoError(t, err)
	_, err = client.CreateRelation(ctx, directus.Relation{Collection: "projects", Field: "customer_id", RelatedCollection: "customers"})
	require.NoError(t, err)

	_, err = client.CreateRelation(ctx, directus.Relation{Collection: "projects", Field: "customer_id", RelatedCollection: "customers"})
	assert.True(t, directus.IsAlreadyExists(err))

	rels, err := client.ListRelations(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.True(t, rels[0].Touches("customers"))

	require.NoError(t, client.DeleteRelation(ctx, "projects", "customer_id"))
	require.NoError(t, client.DeleteField(ctx, "projects", "customer_id"))
	require.NoError(t, client.DeleteCollection(ctx, "projects"))
	assert.False(t, cms.HasCollection("projects"))
}

func TestItems(t *testing.T) {
	cms := cmstest.New(t)
	cms.SeedCollection("customers", directus.Field{Field: "email", Type: "string"})
	client := login(t, cms)
	ctx := context.Background()

	created, err := client.CreateItems(ctx, "customers", []directus.Item{
		{"email": "a@example.com"},
		{"email": "b@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, float64(1), created[0].ID())

	one, err := client.CreateItem(ctx, "customers", directus.Item{"email": "c@example.com"})
	require.NoError(t, err)

	_, err = client.UpdateItem(ctx, "customers", one.ID(), directus.Item{"email": "c2@example.com"})
	require.NoError(t, err)

	found, err := client.ListItems(ctx, "customers", directus.Query{
		Filter: map[string]interface{}{"email": map[string]interface{}{"_eq": "c2@example.com"}},
	})
	require.NoError(t, err)
	require.Len(t, found, 1)

	n, err := client.Count(ctx, "customers")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, client.DeleteItem(ctx, "customers", one.ID()))
	all, err := client.ListItems(ctx, "customers", directus.All())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRolesAndPermissions(t *testing.T) {
	cms := cmstest.New(t)
	client := login(t, cms)
	ctx := context.Background()

	role, err := client.CreateRole(ctx, directus.Role{Name: "Designer", Icon: "brush"})
	require.NoError(t, err)

	found, err := client.FindRole(ctx, "Designer")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, role.ID, found.ID)

	missing, err := client.FindRole(ctx, "Nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	p, err := client.CreatePermission(ctx, directus.Permission{Collection: "projects", Action: "read", Fields: []string{"*"}})
	require.NoError(t, err)

	public, err := client.ListPermissions(ctx, directus.PermissionFilter{Public: true, Collection: "projects"})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.True(t, public[0].IsPublic())

	_, err = client.UpdatePermission(ctx, p.ID, map[string]interface{}{"fields": []string{"id", "project_name"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "project_name"}, cms.Permissions()[0].Fields)
}

func TestDashboards(t *testing.T) {
	cms := cmstest.New(t)
	client := login(t, cms)
	ctx := context.Background()

	d, err := client.CreateDashboard(ctx, directus.Dashboard{Name: "Metrics", Icon: "dashboard", Color: "#6644FF"})
	require.NoError(t, err)
	_, err = client.CreatePanel(ctx, directus.Panel{Dashboard: d.ID, Type: "metric", Width: 12, Height: 6})
	require.NoError(t, err)
	_, err = client.CreatePanel(ctx, directus.Panel{Dashboard: "missing", Type: "metric"})
	assert.Error(t, err)

	list, err := client.ListDashboards(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, cms.Panels(), 1)
}

func TestSnapshotDiffApply(t *testing.T) {
	source := cmstest.New(t)
	source.SeedCollection("customers", directus.Field{Collection: "customers", Field: "email", Type: "string"})
	target := cmstest.New(t)
	ctx := context.Background()

	snap, err := login(t, source).Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap, "collections")

	targetClient := login(t, target)
	diff, err := targetClient.Diff(ctx, snap, true)
	require.NoError(t, err)
	require.NotNil(t, diff)
	require.NoError(t, targetClient.Apply(ctx, diff))
	assert.True(t, target.HasCollection("customers"))

	diff, err = targetClient.Diff(ctx, snap, false)
	require.NoError(t, err)
	assert.Nil(t, diff)
}

func TestUsersAndServer(t *testing.T) {
	cms := cmstest.New(t)
	client := login(t, cms)
	ctx := context.Background()

	me, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, cmstest.AdminUserID, me.ID)

	_, err = client.UpdateUser(ctx, me.ID, map[string]interface{}{"token": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", cms.User(me.ID)["token"])

	h, err := client.Health(ctx)
	require.NoError(t, err)
	assert.True(t, h.Ready())
	assert.NoError(t, client.Ping(ctx))
}

func TestInjectedFailure(t *testing.T) {
	cms := cmstest.New(t)
	client := login(t, cms)
	cms.Fail(http.MethodGet, "/collections", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "down")

	_, err := client.ListCollections(context.Background())
	require.Error(t, err)
	assert.Equal(t, "down", directus.Message(err))

	_, err = client.ListCollections(context.Background())
	assert.NoError(t, err)
}
