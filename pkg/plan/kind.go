package plan

//go:generate go run github.com/dmarkham/enumer -type Kind -trimprefix Kind -transform snake -json -yaml -output kind.gen.go

// Kind identifies what a step does. The zero value is not a kind, so a
// step without one fails validation.
type Kind int

const (
	KindCreateCollection Kind = iota + 1
	KindUpdateCollection
	KindDeleteCollection
	KindCreateField
	KindUpdateField
	KindDeleteField
	KindRetypeField
	KindRenameField
	KindCreateRelation
	KindUpdateRelation
	KindDeleteRelations
	KindCreateRole
	KindGrantPermission
	KindCreateItems
	KindUpdateItems
	KindCopyItems
	KindCopyFields
	KindCreateDashboard
	KindNote
)
