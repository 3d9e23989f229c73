package scenario

import (
	"github.com/iancoleman/orderedmap"
	"github.com/invopop/jsonschema"
)

// BuildSchema reflects the descriptor into a machine-readable JSON schema
// for validation and editor tooling (cmd/scenario-schema writes it out).
func BuildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Descriptor))
	schema.Title = "Manifest-sim Scenario"
	schema.Description = "Validates scenario descriptor files accepted by the manifest-sim harness"
	pinVersion(schema)
	return schema
}

// pinVersion constrains the version property to the loader's accepted value
// so editors flag a stale file before the loader rejects it.
func pinVersion(schema *jsonschema.Schema) {
	prop, ok := descriptorProperty(schema, "version")
	if !ok {
		return
	}
	prop.Enum = []interface{}{CurrentVersion}
}

// DescriptorPropertyOrder reports the descriptor's schema properties in
// declaration order, used by the schema CLI to summarize what it generated.
func DescriptorPropertyOrder(schema *jsonschema.Schema) []string {
	def, ok := schema.Definitions["Descriptor"]
	if !ok {
		return nil
	}
	return propertyNames(def.Properties)
}

func descriptorProperty(schema *jsonschema.Schema, name string) (*jsonschema.Schema, bool) {
	def, ok := schema.Definitions["Descriptor"]
	if !ok || def.Properties == nil {
		return nil, false
	}
	raw, ok := def.Properties.Get(name)
	if !ok {
		return nil, false
	}
	prop, ok := raw.(*jsonschema.Schema)
	return prop, ok
}

func propertyNames(props *orderedmap.OrderedMap) []string {
	if props == nil {
		return nil
	}
	return append([]string(nil), props.Keys()...)
}
