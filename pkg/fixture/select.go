package fixture

import (
	"fmt"

	"github.com/jhwagner/mapping-fixtures/pkg/config"
)

// Select picks the fixtures to load. With no names it returns every built-in
// fixture followed by every fixture of sets, in declaration order. A fixture
// from sets shadows the built-in fixture of the same name.
func Select(names []string, sets []*config.FixtureSet) ([]config.Fixture, error) {
	declared := make(map[string]config.Fixture)
	var order []string
	for _, set := range sets {
		for _, f := range set.Spec.Fixtures {
			if _, dup := declared[f.Name]; dup {
				return nil, fmt.Errorf("fixture '%s' is declared more than once (fixture set '%s')", f.Name, set.Metadata.Name)
			}
			declared[f.Name] = f
			order = append(order, f.Name)
		}
	}

	if len(names) == 0 {
		var selected []config.Fixture
		for _, name := range BuiltinNames() {
			if _, shadowed := declared[name]; shadowed {
				continue
			}
			f, _ := Builtin(name)
			selected = append(selected, f)
		}
		for _, name := range order {
			selected = append(selected, declared[name])
		}
		return selected, nil
	}

	seen := make(map[string]bool, len(names))
	selected := make([]config.Fixture, 0, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("fixture '%s' is selected more than once", name)
		}
		seen[name] = true

		if f, ok := declared[name]; ok {
			selected = append(selected, f)
			continue
		}
		f, ok := Builtin(name)
		if !ok {
			return nil, fmt.Errorf("unknown fixture '%s' (built-in fixtures: %v)", name, BuiltinNames())
		}
		selected = append(selected, f)
	}
	return selected, nil
}
