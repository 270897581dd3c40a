/*
Package formats loads format profiles: named bundles of column aliases,
calculation policy flags, and working-day configuration.

PURPOSE:
  Each supported spreadsheet variant gets a profile. Profiles are plain TOML
  files so the billing team can add a new CSV format without a deploy:

    name = "standard"

    [aliases]
    "NAME"   = "employee_id"
    "Hours"  = "allocated"
    "Rate"   = "rate"

    [policy]
    rounding  = "half_up"
    proration = "calendar_days"

    [working_days]
    Jan = 21
    Feb = 20

  The built-in default profile carries the full alias table from
  billing.DefaultSchema and needs no file.

SEE ALSO:
  - billing/schema.go: The Schema a profile compiles into
  - billing/policy.go: The Policy a profile compiles into
*/
package formats

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// PROFILE
// =============================================================================

// Profile is the on-disk representation of a format profile.
type Profile struct {
	Name     string            `toml:"name"`
	Aliases  map[string]string `toml:"aliases"`
	Required []string          `toml:"required"`

	Policy struct {
		Rounding  string `toml:"rounding"`
		Proration string `toml:"proration"`
	} `toml:"policy"`

	WorkingDays map[string]int `toml:"working_days"`

	// Deputations optionally overrides the billing factor and day length per
	// deputation category:
	//
	//   [deputations.OFFSHORE]
	//   factor        = 0.85
	//   hours_per_day = 9.0
	Deputations map[string]DeputationOverride `toml:"deputations"`
}

// DeputationOverride is one profile-supplied deputation entry.
type DeputationOverride struct {
	Factor      float64 `toml:"factor"`
	HoursPerDay float64 `toml:"hours_per_day"`
}

// Default returns the built-in profile backing billing.DefaultSchema and
// billing.DefaultPolicy.
func Default() Profile {
	p := Profile{Name: "default", Aliases: map[string]string{}}
	for alias, field := range billing.DefaultSchema().Aliases {
		p.Aliases[alias] = string(field)
	}
	p.Policy.Rounding = string(billing.RoundHalfUp)
	p.Policy.Proration = string(billing.ProrateCalendarDays)
	return p
}

// Parse decodes a TOML profile.
func Parse(data []byte) (Profile, error) {
	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	if p.Name == "" {
		return Profile{}, fmt.Errorf("profile has no name")
	}
	if len(p.Aliases) == 0 {
		return Profile{}, fmt.Errorf("profile %q has no aliases", p.Name)
	}
	return p, nil
}

// Schema compiles the profile into a billing.Schema. Unknown canonical field
// names are rejected so typos in a profile fail loudly at load time.
func (p Profile) Schema() (billing.Schema, error) {
	known := map[billing.Field]bool{
		billing.FieldEmployeeID: true, billing.FieldName: true,
		billing.FieldProject: true, billing.FieldDeputation: true,
		billing.FieldStatus: true, billing.FieldPeriod: true,
		billing.FieldAllocated: true, billing.FieldRate: true,
		billing.FieldLeave: true, billing.FieldStartDate: true,
		billing.FieldExitDate: true, billing.FieldRateCode: true,
	}

	schema := billing.Schema{Aliases: make(map[string]billing.Field, len(p.Aliases))}
	for alias, field := range p.Aliases {
		f := billing.Field(field)
		if !known[f] {
			return billing.Schema{}, fmt.Errorf("profile %q: unknown field %q for alias %q", p.Name, field, alias)
		}
		schema.Aliases[alias] = f
	}

	if len(p.Required) == 0 {
		schema.Required = billing.DefaultSchema().Required
	} else {
		for _, r := range p.Required {
			f := billing.Field(r)
			if !known[f] {
				return billing.Schema{}, fmt.Errorf("profile %q: unknown required field %q", p.Name, r)
			}
			schema.Required = append(schema.Required, f)
		}
	}
	return schema, nil
}

// BillingPolicy compiles the profile's policy section, including working
// days keyed by month abbreviation ("Jan") or full name ("January").
func (p Profile) BillingPolicy() (billing.Policy, error) {
	policy := billing.DefaultPolicy()
	if p.Policy.Rounding != "" {
		policy.Rounding = billing.RoundingMode(p.Policy.Rounding)
	}
	if p.Policy.Proration != "" {
		policy.Proration = billing.ProrationMode(p.Policy.Proration)
	}
	if err := policy.Validate(); err != nil {
		return billing.Policy{}, fmt.Errorf("profile %q: %w", p.Name, err)
	}

	if len(p.WorkingDays) > 0 {
		policy.WorkingDays = make(map[time.Month]int, len(p.WorkingDays))
		for name, days := range p.WorkingDays {
			m, err := parseMonth(name)
			if err != nil {
				return billing.Policy{}, fmt.Errorf("profile %q: %w", p.Name, err)
			}
			if days < 1 || days > 31 {
				return billing.Policy{}, fmt.Errorf("profile %q: working days %d for %s out of range", p.Name, days, name)
			}
			policy.WorkingDays[m] = days
		}
	}
	return policy, nil
}

// DeputationTable compiles the profile's deputation overrides on top of the
// built-in factor/hours table. Categories are uppercased; an override only
// replaces the parts it sets.
func (p Profile) DeputationTable() (billing.DeputationTable, error) {
	table := billing.DefaultDeputations()
	for name, o := range p.Deputations {
		if o.Factor < 0 || o.Factor > 1 {
			return nil, fmt.Errorf("profile %q: deputation %s factor %v out of range", p.Name, name, o.Factor)
		}
		if o.HoursPerDay < 0 || o.HoursPerDay > 24 {
			return nil, fmt.Errorf("profile %q: deputation %s hours per day %v out of range", p.Name, name, o.HoursPerDay)
		}
		dep := billing.Deputation(strings.ToUpper(name))
		// New categories start from the neutral profile so a partial override
		// never leaves a zero factor or zero-hour day behind.
		entry := table.Profile(dep)
		if o.Factor != 0 {
			entry.Factor = decimal.NewFromFloat(o.Factor)
		}
		if o.HoursPerDay != 0 {
			entry.HoursPerDay = decimal.NewFromFloat(o.HoursPerDay)
		}
		table[dep] = entry
	}
	return table, nil
}

func parseMonth(name string) (time.Month, error) {
	for m := time.January; m <= time.December; m++ {
		full := m.String()
		if strings.EqualFold(name, full) || strings.EqualFold(name, full[:3]) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", name)
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds the loaded profiles plus the built-in default.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry returns a registry seeded with the default profile.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]Profile)}
	d := Default()
	r.profiles[d.Name] = d
	return r
}

// LoadDir loads every *.toml profile in a directory. A missing directory is
// fine; a malformed profile is not.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read profile dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read profile %s: %w", e.Name(), err)
		}
		p, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
		r.profiles[p.Name] = p
	}
	return nil
}

// Get returns a profile by name; empty name means the default.
func (r *Registry) Get(name string) (Profile, bool) {
	if name == "" {
		name = "default"
	}
	p, ok := r.profiles[name]
	return p, ok
}

// Names lists the registered profile names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for n := range r.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
