package fixture

import (
	"reflect"
	"testing"

	"github.com/jhwagner/mapping-fixtures/pkg/config"
)

func fixtureSet(name string, fixtures ...string) *config.FixtureSet {
	set := &config.FixtureSet{Metadata: config.Metadata{Name: name}}
	for _, f := range fixtures {
		set.Spec.Fixtures = append(set.Spec.Fixtures, config.Fixture{Name: f, Description: "from " + name})
	}
	return set
}

func fixtureNames(fixtures []config.Fixture) []string {
	names := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		names = append(names, f.Name)
	}
	return names
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		sets    []*config.FixtureSet
		want    []string
		wantErr bool
	}{
		{
			name: "all built-ins",
			want: []string{"apphisto", "broker", "network"},
		},
		{
			name: "built-ins then file fixtures",
			sets: []*config.FixtureSet{fixtureSet("lab", "cache", "db")},
			want: []string{"apphisto", "broker", "network", "cache", "db"},
		},
		{
			name: "file fixture shadows built-in",
			sets: []*config.FixtureSet{fixtureSet("lab", "broker")},
			want: []string{"apphisto", "network", "broker"},
		},
		{
			name:  "explicit order kept",
			names: []string{"network", "cache", "broker"},
			sets:  []*config.FixtureSet{fixtureSet("lab", "cache")},
			want:  []string{"network", "cache", "broker"},
		},
		{
			name:    "unknown fixture",
			names:   []string{"nope"},
			wantErr: true,
		},
		{
			name:    "selected twice",
			names:   []string{"broker", "broker"},
			wantErr: true,
		},
		{
			name:    "declared twice across sets",
			sets:    []*config.FixtureSet{fixtureSet("a", "cache"), fixtureSet("b", "cache")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(tt.names, tt.sets)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Select() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if names := fixtureNames(got); !reflect.DeepEqual(names, tt.want) {
				t.Errorf("Select() = %v, want %v", names, tt.want)
			}
		})
	}
}

func TestSelectPrefersFileDefinition(t *testing.T) {
	got, err := Select([]string{"broker"}, []*config.FixtureSet{fixtureSet("lab", "broker")})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got[0].Description != "from lab" {
		t.Errorf("expected the file definition of broker, got %q", got[0].Description)
	}
}
