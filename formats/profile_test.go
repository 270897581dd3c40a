package formats_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/formats"
)

// =============================================================================
// PARSING
// =============================================================================

const sampleProfile = `
name = "legacy"

[aliases]
"RES_NAME" = "employee_id"
"HRS"      = "allocated"
"BILL_RT"  = "rate"
"LV"       = "leave"

[policy]
rounding  = "half_even"
proration = "working_days"

[working_days]
Jan = 22
February = 20
`

func TestParse_Profile(t *testing.T) {
	p, err := formats.Parse([]byte(sampleProfile))
	require.NoError(t, err)

	assert.Equal(t, "legacy", p.Name)
	assert.Equal(t, "employee_id", p.Aliases["RES_NAME"])
	assert.Equal(t, "half_even", p.Policy.Rounding)
}

func TestParse_RejectsAnonymousOrEmpty(t *testing.T) {
	_, err := formats.Parse([]byte(`[aliases]` + "\n" + `"A" = "rate"`))
	assert.Error(t, err)

	_, err = formats.Parse([]byte(`name = "empty"`))
	assert.Error(t, err)
}

// =============================================================================
// COMPILATION
// =============================================================================

func TestProfile_CompilesToSchemaAndPolicy(t *testing.T) {
	// GIVEN: A parsed profile
	// WHEN: Compiling to engine types
	// THEN: Aliases, modes, and working days all carry over

	p, err := formats.Parse([]byte(sampleProfile))
	require.NoError(t, err)

	schema, err := p.Schema()
	require.NoError(t, err)
	assert.Equal(t, billing.FieldAllocated, schema.Aliases["HRS"])
	// Required defaults to the built-in set when the profile omits it.
	assert.Equal(t, billing.DefaultSchema().Required, schema.Required)

	policy, err := p.BillingPolicy()
	require.NoError(t, err)
	assert.Equal(t, billing.RoundHalfEven, policy.Rounding)
	assert.Equal(t, billing.ProrateWorkingDays, policy.Proration)
	assert.Equal(t, 22, policy.WorkingDays[time.January])
	assert.Equal(t, 20, policy.WorkingDays[time.February])
}

func TestProfile_UnknownCanonicalField_FailsLoudly(t *testing.T) {
	p, err := formats.Parse([]byte("name = \"typo\"\n[aliases]\n\"X\" = \"alocated\""))
	require.NoError(t, err)

	_, err = p.Schema()
	assert.Error(t, err)
}

func TestProfile_BadWorkingDays(t *testing.T) {
	p, err := formats.Parse([]byte("name = \"p\"\n[aliases]\n\"X\" = \"rate\"\n[working_days]\nSmarch = 21"))
	require.NoError(t, err)
	_, err = p.BillingPolicy()
	assert.Error(t, err)

	p, err = formats.Parse([]byte("name = \"p\"\n[aliases]\n\"X\" = \"rate\"\n[working_days]\nJan = 40"))
	require.NoError(t, err)
	_, err = p.BillingPolicy()
	assert.Error(t, err)
}

func TestProfile_DeputationOverrides(t *testing.T) {
	// GIVEN: A profile overriding OFFSHORE and adding a new category
	// THEN: Overrides layer on the defaults; new categories start neutral

	src := `
name = "custom"

[aliases]
"X" = "rate"

[deputations.OFFSHORE]
factor = 0.85

[deputations.hybrid]
hours_per_day = 6.0
`
	p, err := formats.Parse([]byte(src))
	require.NoError(t, err)

	table, err := p.DeputationTable()
	require.NoError(t, err)

	offshore := table.Profile(billing.DeputationOffshore)
	assert.Equal(t, "0.85", offshore.Factor.String())
	// hours_per_day untouched by the partial override
	assert.Equal(t, "8.75", offshore.HoursPerDay.String())

	hybrid := table.Profile("HYBRID")
	assert.Equal(t, "1", hybrid.Factor.String())
	assert.Equal(t, "6", hybrid.HoursPerDay.String())

	// Untouched defaults survive
	assert.Equal(t, "0.95", table.Profile(billing.DeputationOnsite).Factor.String())
}

func TestProfile_DeputationOverride_OutOfRange(t *testing.T) {
	src := "name = \"p\"\n[aliases]\n\"X\" = \"rate\"\n[deputations.ONSITE]\nfactor = 1.5"
	p, err := formats.Parse([]byte(src))
	require.NoError(t, err)

	_, err = p.DeputationTable()
	assert.Error(t, err)
}

// =============================================================================
// REGISTRY
// =============================================================================

func TestRegistry_DefaultAlwaysPresent(t *testing.T) {
	r := formats.NewRegistry()

	p, ok := r.Get("")
	require.True(t, ok)
	assert.Equal(t, "default", p.Name)

	_, ok = r.Get("nope")
	assert.False(t, ok)
}

func TestRegistry_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.toml"), []byte(sampleProfile), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	r := formats.NewRegistry()
	require.NoError(t, r.LoadDir(dir))

	assert.Equal(t, []string{"default", "legacy"}, r.Names())
}

func TestRegistry_MissingDirIsFine(t *testing.T) {
	r := formats.NewRegistry()
	assert.NoError(t, r.LoadDir("/does/not/exist"))
}

func TestRegistry_MalformedProfileFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.toml"), []byte("name = ["), 0o644))

	r := formats.NewRegistry()
	assert.Error(t, r.LoadDir(dir))
}

// =============================================================================
// DEFAULT PROFILE ROUND TRIP
// =============================================================================

func TestDefaultProfile_MatchesEngineDefaults(t *testing.T) {
	p := formats.Default()

	schema, err := p.Schema()
	require.NoError(t, err)
	assert.Equal(t, billing.DefaultSchema().Aliases, schema.Aliases)

	policy, err := p.BillingPolicy()
	require.NoError(t, err)
	assert.Equal(t, billing.RoundHalfUp, policy.Rounding)
	assert.Equal(t, billing.ProrateCalendarDays, policy.Proration)
}
