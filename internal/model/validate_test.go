package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  map[string]interface{}
		wantErr bool
	}{
		{
			name:   "minimal",
			record: map[string]interface{}{"fullname": "Jane Doe", "email": "jane@example.com", "technicalSkills": []interface{}{"Go"}},
		},
		{
			name:   "unknown keys allowed",
			record: map[string]interface{}{"fullname": "Jane Doe", "nickname": "JD"},
		},
		{
			name: "nested entries",
			record: map[string]interface{}{
				"education":      []interface{}{map[string]interface{}{"degree": "BSc", "institution": "MIT", "startYear": 2019.0}},
				"workExperience": []interface{}{map[string]interface{}{"company": "Acme", "position": "Engineer", "startDate": "2021-01-01"}},
			},
		},
		{
			name:    "summary turned into list",
			record:  map[string]interface{}{"profileSummary": []interface{}{"a", "b"}},
			wantErr: true,
		},
		{
			name:    "skill turned into object",
			record:  map[string]interface{}{"technicalSkills": []interface{}{map[string]interface{}{"name": "Go"}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
