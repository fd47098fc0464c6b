// api/model/neo4j/attributes.go
package taskhub_neo4j

// Attribute Keys
const (
	AttrID          = "id"
	AttrName        = "name"
	AttrDescription = "description"
	AttrEmail       = "email"
	AttrRole        = "role"
	AttrDepartment  = "department"
	AttrResource    = "resource"
	AttrAction      = "action"
	AttrConditions  = "conditions"
	AttrVersion     = "version"
	AttrCreatedAt   = "createdAt"
	AttrUpdatedAt   = "updatedAt"
)
