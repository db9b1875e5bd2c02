package etl

// Role identifies which of the two known dataset shapes a row set has.
type Role string

const (
	// RoleRegional is a region-level daily case/death series.
	RoleRegional Role = "regional"
	// RoleAggregate is a country-level series with recovery counts.
	RoleAggregate Role = "aggregate"
)

// Field signatures required for each role.
var (
	regionalFields  = []string{"date", "cases", "deaths"}
	aggregateFields = []string{"Date", "Country/Region", "Province/State", "Lat", "Long", "Confirmed", "Recovered", "Deaths"}
)

// Roles lists every role in the order missing roles are reported.
var Roles = []Role{RoleRegional, RoleAggregate}

// Classified holds exactly one row set per role.
type Classified struct {
	Regional  RowSet
	Aggregate RowSet
}

func (c *Classified) get(role Role) RowSet {
	if role == RoleRegional {
		return c.Regional
	}
	return c.Aggregate
}

func (c *Classified) set(role Role, rs RowSet) {
	if role == RoleRegional {
		c.Regional = rs
	} else {
		c.Aggregate = rs
	}
}

// ClassifyFields reports which role a header matches. The regional
// signature is checked first.
func ClassifyFields(fields []string) (Role, bool) {
	have := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		have[f] = struct{}{}
	}
	switch {
	case hasAll(have, regionalFields):
		return RoleRegional, true
	case hasAll(have, aggregateFields):
		return RoleAggregate, true
	default:
		return "", false
	}
}

func hasAll(have map[string]struct{}, fields []string) bool {
	for _, f := range fields {
		if _, ok := have[f]; !ok {
			return false
		}
	}
	return true
}

// Classify identifies which row set is which. Empty row sets are skipped.
// Format errors are reported as soon as they are met; missing roles are
// only reported after every input has been looked at.
func Classify(sets []RowSet) (Classified, error) {
	var out Classified
	for _, rs := range sets {
		if len(rs) == 0 {
			continue
		}
		first := rs[0]
		if first == nil {
			return Classified{}, invalidDataset("cannot find a field mapping record")
		}
		fields := make([]string, 0, len(first))
		for k := range first {
			fields = append(fields, k)
		}
		role, ok := ClassifyFields(fields)
		if !ok {
			return Classified{}, invalidDataset("required columns are missing")
		}
		if out.get(role) != nil {
			return Classified{}, invalidDataset("more than one dataset matches the %s role", role)
		}
		out.set(role, rs)
	}

	var missing []Role
	for _, role := range Roles {
		if out.get(role) == nil {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		return Classified{}, &MissingDatasetError{Roles: missing}
	}
	return out, nil
}
