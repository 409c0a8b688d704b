package enrich

import "testing"

func TestStaticEnricher_EmitsBoundFields(t *testing.T) {
	t.Parallel()

	e := NewStaticEnricher(StaticOptions{
		ApplicationName: "checkout",
		Environment:     "production",
		Version:         "1.4.2",
	})

	c := NewCollector()
	e.Enrich(c)

	tags := c.Tags()
	want := []Tag{
		{Key: KeyApp, Value: "checkout"},
		{Key: KeyEnvironment, Value: "production"},
		{Key: KeyVersion, Value: "1.4.2"},
	}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %v, want %v", i, tags[i], want[i])
		}
	}
}

func TestStaticEnricher_OmitsUnsetFields(t *testing.T) {
	t.Parallel()

	e := NewStaticEnricher(StaticOptions{ApplicationName: "checkout"})

	c := NewCollector()
	e.Enrich(c)

	tags := c.Tags()
	if len(tags) != 1 {
		t.Fatalf("tags = %v, want only app", tags)
	}
	if tags[0].Key != KeyApp {
		t.Errorf("tags[0].Key = %q, want %q", tags[0].Key, KeyApp)
	}
}

func TestStaticEnricher_SameTagsOnEveryInvocation(t *testing.T) {
	t.Parallel()

	e := NewStaticEnricher(StaticOptions{
		ApplicationName: "checkout",
		Extra:           map[string]string{"team": "payments", "cluster": "eu-west"},
	})

	first := NewCollector()
	e.Enrich(first)
	second := NewCollector()
	e.Enrich(second)

	a, b := first.Tags(), second.Tags()
	if len(a) != len(b) {
		t.Fatalf("tag counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("invocation mismatch at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestStaticEnricher_ExtraTagsSortedAfterNamedFields(t *testing.T) {
	t.Parallel()

	e := NewStaticEnricher(StaticOptions{
		ApplicationName: "checkout",
		Extra:           map[string]string{"zone": "a", "cluster": "eu-west"},
	})

	tags := e.Tags()
	if len(tags) != 3 {
		t.Fatalf("tags = %v, want 3", tags)
	}
	if tags[0].Key != KeyApp {
		t.Errorf("tags[0].Key = %q, want %q", tags[0].Key, KeyApp)
	}
	if tags[1].Key != "cluster" || tags[2].Key != "zone" {
		t.Errorf("extra tags = %v, want cluster then zone", tags[1:])
	}
}

func TestBindStaticOptions_CanonicalKeyMatching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values map[string]string
		want   StaticOptions
	}{
		{
			name: "kebab case",
			values: map[string]string{
				"application-name": "checkout",
				"environment":      "production",
				"version":          "1.4.2",
			},
			want: StaticOptions{ApplicationName: "checkout", Environment: "production", Version: "1.4.2"},
		},
		{
			name: "pascal case",
			values: map[string]string{
				"ApplicationName": "checkout",
				"Environment":     "staging",
			},
			want: StaticOptions{ApplicationName: "checkout", Environment: "staging"},
		},
		{
			name: "snake case and application alias",
			values: map[string]string{
				"application": "billing",
				"VERSION":     "2.0.0",
			},
			want: StaticOptions{ApplicationName: "billing", Version: "2.0.0"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := BindStaticOptions(tt.values)
			if got.ApplicationName != tt.want.ApplicationName {
				t.Errorf("ApplicationName = %q, want %q", got.ApplicationName, tt.want.ApplicationName)
			}
			if got.Environment != tt.want.Environment {
				t.Errorf("Environment = %q, want %q", got.Environment, tt.want.Environment)
			}
			if got.Version != tt.want.Version {
				t.Errorf("Version = %q, want %q", got.Version, tt.want.Version)
			}
			if len(got.Extra) != 0 {
				t.Errorf("Extra = %v, want empty", got.Extra)
			}
		})
	}
}

func TestBindStaticOptions_UnknownKeysBecomeExtraTags(t *testing.T) {
	t.Parallel()

	opts := BindStaticOptions(map[string]string{
		"application-name": "checkout",
		"team":             "payments",
		"cost-center":      "cc-42",
	})

	if opts.ApplicationName != "checkout" {
		t.Errorf("ApplicationName = %q, want checkout", opts.ApplicationName)
	}
	if opts.Extra["team"] != "payments" {
		t.Errorf("Extra[team] = %q, want payments", opts.Extra["team"])
	}
	if opts.Extra["cost-center"] != "cc-42" {
		t.Errorf("Extra[cost-center] = %q, want cc-42", opts.Extra["cost-center"])
	}
}

func TestBindStaticOptions_EmptySection(t *testing.T) {
	t.Parallel()

	opts := BindStaticOptions(map[string]string{})
	e := NewStaticEnricher(opts)

	c := NewCollector()
	e.Enrich(c)
	if c.Len() != 0 {
		t.Fatalf("tags = %v, want none for empty section", c.Tags())
	}
}
