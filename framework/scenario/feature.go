package scenario

// Feature groups scenarios that share Before and After hooks, in the manner of a BDD feature
// file.
//
// Hooks are scoped to each scenario rather than registered globally: for every scenario, the
// After hooks are deferred on the scenario's T before any Before hook runs, so they run on every
// exit path including a failed Before hook. After hooks must therefore tolerate running when
// the corresponding Before hook did not complete. If a Before hook fails, the scenario body is
// not run.
type Feature struct {
	name      string
	befores   []func(*T)
	afters    []func(*T)
	scenarios []namedScenario
}

type namedScenario struct {
	name string
	body func(*T)
}

// NewFeature creates an empty Feature.
func NewFeature(name string) *Feature {
	return &Feature{name: name}
}

// Name returns the name passed to NewFeature.
func (f *Feature) Name() string { return f.name }

// Before adds a hook that runs before each scenario, in the order added.
func (f *Feature) Before(hook func(*T)) *Feature {
	f.befores = append(f.befores, hook)
	return f
}

// After adds a hook that runs after each scenario. After hooks run in reverse order of
// registration, like deferred calls.
func (f *Feature) After(hook func(*T)) *Feature {
	f.afters = append(f.afters, hook)
	return f
}

// Scenario adds a scenario.
func (f *Feature) Scenario(name string, body func(*T)) *Feature {
	f.scenarios = append(f.scenarios, namedScenario{name: name, body: body})
	return f
}

// ScenarioNames returns the names of all scenarios in the order they were added.
func (f *Feature) ScenarioNames() []string {
	ret := make([]string, 0, len(f.scenarios))
	for _, s := range f.scenarios {
		ret = append(ret, s.name)
	}
	return ret
}

// Run runs every scenario of the feature sequentially, as subtests of a subtest of t named
// after the feature.
func (f *Feature) Run(t *T) {
	t.Run(f.name, func(t *T) {
		for _, s := range f.scenarios {
			s := s
			t.Run(s.name, func(t *T) { f.runScenario(t, s.body) })
		}
	})
}

func (f *Feature) runScenario(t *T, body func(*T)) {
	for _, hook := range f.afters {
		hook := hook
		t.Defer(func() { hook(t) })
	}
	for _, hook := range f.befores {
		hook(t)
		if t.Failed() {
			t.FailNow()
		}
	}
	body(t)
}
