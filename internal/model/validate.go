package model

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/resume.schema.json
var resumeSchema []byte

// compiledSchema is built once at package init and only read afterwards.
var compiledSchema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(resumeSchema))
	if err != nil {
		panic(fmt.Sprintf("model: invalid embedded resume schema: %v", err))
	}
	return s
}()

// ValidateRecord checks a generic resume map against the record schema. Only
// field types are constrained; unknown keys and missing keys are allowed.
func ValidateRecord(m map[string]interface{}) error {
	res, err := compiledSchema.Validate(gojsonschema.NewGoLoader(m))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}
