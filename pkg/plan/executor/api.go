package executor

import (
	"context"

	"github.com/directus-ops/cmsctl/pkg/directus"
)

// API is the part of the CMS client the executor uses.
type API interface {
	BaseURL() string

	GetCollection(ctx context.Context, name string) (*directus.Collection, error)
	CreateCollection(ctx context.Context, col directus.Collection) (*directus.Collection, error)
	UpdateCollection(ctx context.Context, name string, patch map[string]interface{}) (*directus.Collection, error)
	DeleteCollection(ctx context.Context, name string) error

	ListFields(ctx context.Context, collection string) ([]directus.Field, error)
	GetField(ctx context.Context, collection, field string) (*directus.Field, error)
	CreateField(ctx context.Context, collection string, f directus.Field) (*directus.Field, error)
	UpdateField(ctx context.Context, collection, field string, patch map[string]interface{}) (*directus.Field, error)
	DeleteField(ctx context.Context, collection, field string) error

	ListRelations(ctx context.Context) ([]directus.Relation, error)
	CreateRelation(ctx context.Context, r directus.Relation) (*directus.Relation, error)
	UpdateRelation(ctx context.Context, collection, field string, patch map[string]interface{}) (*directus.Relation, error)
	DeleteRelation(ctx context.Context, collection, field string) error

	ListItems(ctx context.Context, collection string, q directus.Query) ([]directus.Item, error)
	CreateItem(ctx context.Context, collection string, item directus.Item) (directus.Item, error)
	CreateItems(ctx context.Context, collection string, items []directus.Item) ([]directus.Item, error)
	UpdateItem(ctx context.Context, collection string, id interface{}, patch directus.Item) (directus.Item, error)

	ListRoles(ctx context.Context) ([]directus.Role, error)
	CreateRole(ctx context.Context, r directus.Role) (*directus.Role, error)
	ListPermissions(ctx context.Context, f directus.PermissionFilter) ([]directus.Permission, error)
	CreatePermission(ctx context.Context, p directus.Permission) (*directus.Permission, error)
	UpdatePermission(ctx context.Context, id int, patch map[string]interface{}) (*directus.Permission, error)

	ListDashboards(ctx context.Context) ([]directus.Dashboard, error)
	CreateDashboard(ctx context.Context, d directus.Dashboard) (*directus.Dashboard, error)
	ListPanels(ctx context.Context, dashboard string) ([]directus.Panel, error)
	CreatePanel(ctx context.Context, p directus.Panel) (*directus.Panel, error)
}

var _ API = (*directus.Client)(nil)
