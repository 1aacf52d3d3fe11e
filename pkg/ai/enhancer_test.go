package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-resume-generator/internal/domain"
	"ai-resume-generator/internal/logging"
)

// generatorFunc adapts a function to TextGenerator.
type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// rewriting echoes the record found in the prompt back with every string
// value passed through fn, wrapped in chatter the way models answer.
func rewriting(t *testing.T, fn func(string) string) generatorFunc {
	return func(_ context.Context, prompt string) (string, error) {
		i := strings.Index(prompt, "{")
		require.GreaterOrEqual(t, i, 0)
		var v interface{}
		require.NoError(t, json.Unmarshal([]byte(prompt[i:]), &v))
		b, err := json.Marshal(mapStrings(v, fn))
		require.NoError(t, err)
		return "Sure! Here is the improved resume:\n```json\n" + string(b) + "\n```", nil
	}
}

func mapStrings(v interface{}, fn func(string) string) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		for k, e := range x {
			x[k] = mapStrings(e, fn)
		}
		return x
	case []interface{}:
		for i, e := range x {
			x[i] = mapStrings(e, fn)
		}
		return x
	case string:
		return fn(x)
	}
	return v
}

func minimalRecord() domain.ResumeRecord {
	return domain.ResumeRecord{
		"fullname":        "Jane Doe",
		"email":           "jane@example.com",
		"technicalSkills": []interface{}{"Go"},
	}
}

func TestEnhancer_Enhanced(t *testing.T) {
	e := NewEnhancer(rewriting(t, strings.ToUpper), logging.Discard())

	res := e.Enhance(context.Background(), minimalRecord())

	require.True(t, res.Enhanced())
	assert.Equal(t, ReasonNone, res.Reason)
	assert.Equal(t, "JANE DOE", res.Record["fullname"])
	assert.Equal(t, []interface{}{"GO"}, res.Record["technicalSkills"])
}

func TestEnhancer_InternalFieldsNeverSent(t *testing.T) {
	var prompt string
	gen := generatorFunc(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return rewriting(t, strings.ToUpper)(ctx, p)
	})
	rec := minimalRecord()
	rec["_id"] = "65f0c0ffee"
	rec["user"] = "owner-123"
	rec["createdAt"] = "2024-05-01T10:00:00Z"
	rec["updatedAt"] = "2024-05-02T10:00:00Z"
	rec["education"] = []interface{}{
		map[string]interface{}{"_id": "edu0c0ffee", "__v": 0.0, "degree": "BSc"},
	}

	res := NewEnhancer(gen, logging.Discard()).Enhance(context.Background(), rec)

	for _, secret := range []string{"65f0c0ffee", "edu0c0ffee", "owner-123", "createdAt", "updatedAt", `"user"`, "__v"} {
		assert.NotContains(t, prompt, secret)
	}
	require.True(t, res.Enhanced())
	assert.Equal(t, "65f0c0ffee", res.Record["_id"], "internal fields are restored after the rewrite")
	assert.Equal(t, keySet(rec), keySet(res.Record))
	assert.Equal(t, map[string]interface{}{"_id": "edu0c0ffee", "__v": 0.0, "degree": "BSC"},
		res.Record["education"].([]interface{})[0])
}

func TestEnhancer_Fallbacks(t *testing.T) {
	tests := []struct {
		name   string
		gen    TextGenerator
		reason FallbackReason
	}{
		{
			name:   "disabled",
			gen:    nil,
			reason: ReasonDisabled,
		},
		{
			name: "transport failure",
			gen: generatorFunc(func(context.Context, string) (string, error) {
				return "", errors.New("attempt 1: timeout; attempt 2: timeout")
			}),
			reason: ReasonTransport,
		},
		{
			name: "no json block",
			gen: generatorFunc(func(context.Context, string) (string, error) {
				return "I am unable to rewrite resumes today.", nil
			}),
			reason: ReasonNoJSON,
		},
		{
			name: "malformed json",
			gen: generatorFunc(func(context.Context, string) (string, error) {
				return `{"fullname": "Jane", "email": }`, nil
			}),
			reason: ReasonParse,
		},
		{
			name: "key added",
			gen: generatorFunc(func(context.Context, string) (string, error) {
				return `{"fullname":"Jane","email":"jane@example.com","technicalSkills":["Go"],"headline":"Gopher"}`, nil
			}),
			reason: ReasonShape,
		},
		{
			name: "key removed",
			gen: generatorFunc(func(context.Context, string) (string, error) {
				return `{"fullname":"Jane","technicalSkills":["Go"]}`, nil
			}),
			reason: ReasonShape,
		},
		{
			name: "type changed",
			gen: generatorFunc(func(context.Context, string) (string, error) {
				return `{"fullname":"Jane","email":"jane@example.com","technicalSkills":[3]}`, nil
			}),
			reason: ReasonSchema,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := minimalRecord()
			before, err := json.Marshal(in)
			require.NoError(t, err)

			res := NewEnhancer(tt.gen, logging.Discard()).Enhance(context.Background(), in)

			assert.False(t, res.Enhanced())
			assert.Equal(t, tt.reason, res.Reason)
			after, err := json.Marshal(res.Record)
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after), "original returned byte-for-byte")
		})
	}
}

func TestEnhancer_KeySetPreserved_RandomRecords(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	gens := map[string]TextGenerator{
		"rewrite": rewriting(t, func(s string) string { return "Improved " + s }),
		"add key": generatorFunc(func(_ context.Context, p string) (string, error) {
			return `{"extra":"field"}`, nil
		}),
		"garbage": generatorFunc(func(context.Context, string) (string, error) {
			return "no json here", nil
		}),
	}

	for i := 0; i < 100; i++ {
		rec := randomRecord(rng)
		for name, gen := range gens {
			res := NewEnhancer(gen, logging.Discard()).Enhance(context.Background(), rec)
			require.NotNil(t, res.Record, "%s: record %d", name, i)
			assert.Equal(t, keySet(rec), keySet(res.Record), "%s: record %d", name, i)
			ok, path := domain.SameShape(mustJSON(t, rec), mustJSON(t, res.Record))
			assert.True(t, ok, "%s: record %d differs at %s", name, i, path)
		}
	}
}

func randomRecord(rng *rand.Rand) domain.ResumeRecord {
	rec := domain.ResumeRecord{"fullname": fmt.Sprintf("Person %d", rng.IntN(1000))}
	optional := map[string]func() interface{}{
		"email":          func() interface{} { return "p@example.com" },
		"phone":          func() interface{} { return "5551234567" },
		"linkedin":       func() interface{} { return "https://linkedin.com/in/p" },
		"profileSummary": func() interface{} { return "Backend engineer" },
		"technicalSkills": func() interface{} {
			return stringList(rng, "Go", "SQL", "Kubernetes")
		},
		"languages": func() interface{} { return stringList(rng, "English", "Hindi") },
		"interests": func() interface{} { return stringList(rng, "Chess", "Hiking") },
		"education": func() interface{} {
			out := []interface{}{}
			for n := rng.IntN(3); n > 0; n-- {
				out = append(out, map[string]interface{}{"degree": "BSc", "institution": "State University", "startYear": float64(2010 + n)})
			}
			return out
		},
		"workExperience": func() interface{} {
			out := []interface{}{}
			for n := rng.IntN(3); n > 0; n-- {
				out = append(out, map[string]interface{}{"company": "Acme", "position": "Engineer", "startDate": "2020-01-01", "description": "did work"})
			}
			return out
		},
		"_id": func() interface{} { return "65f0" },
	}
	for k, gen := range optional {
		if rng.IntN(2) == 0 {
			rec[k] = gen()
		}
	}
	return rec
}

func stringList(rng *rand.Rand, items ...string) []interface{} {
	out := []interface{}{}
	for _, it := range items {
		if rng.IntN(2) == 0 {
			out = append(out, it)
		}
	}
	return out
}

func keySet(r domain.ResumeRecord) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mustJSON(t *testing.T, r domain.ResumeRecord) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(r)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}
