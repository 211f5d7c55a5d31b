package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestScopeInheritsContext(t *testing.T) {
	myContextValue := "hi"
	_ = Run(TestConfiguration{Context: myContextValue}, func(st *T) {
		assert.Equal(t, myContextValue, st.Context())

		st.Run("subtest", func(st1 *T) {
			assert.Equal(t, myContextValue, st1.Context())
		})
	})
}

func TestTestScopeExitsImmediatelyOnFailNow(t *testing.T) {
	executed1 := false
	executed2 := false
	executed3 := false
	_ = Run(TestConfiguration{}, func(st *T) {
		st.Run("", func(st *T) {
			executed1 = true
			st.FailNow()
			executed2 = true
		})
		executed3 = true
	})
	assert.True(t, executed1)
	assert.False(t, executed2)
	assert.True(t, executed3)
}

func TestTestScopeExitsImmediatelyOnSkip(t *testing.T) {
	executed1 := false
	executed2 := false
	executed3 := false
	_ = Run(TestConfiguration{}, func(st *T) {
		st.Run("", func(st *T) {
			executed1 = true
			st.Skip()
			executed2 = true
		})
		executed3 = true
	})
	assert.True(t, executed1)
	assert.False(t, executed2)
	assert.True(t, executed3)
}

func TestTestScopePassedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(st *T) {
		st.Run("parent", func(st0 *T) {
			st0.Run("subtest1", func(st1 *T) {})
			st0.Run("subtest2", func(st2 *T) {})
		})
	})

	assert.True(t, result.OK())
	require.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 0)

	assert.Equal(t, TestID{"parent", "subtest1"}, result.Tests[0].TestID)
	assert.Equal(t, TestID{"parent", "subtest2"}, result.Tests[1].TestID)
	assert.Equal(t, TestID{"parent"}, result.Tests[2].TestID)
	assert.Nil(t, result.Tests[3].TestID)
}

func TestTestScopeFailedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(st *T) {
		st.Run("parent", func(st0 *T) {
			st0.Run("subtest1", func(st1 *T) {})
			st0.Run("subtest2", func(st2 *T) {
				st2.Errorf("failed because %s", "reasons")
				st2.Errorf("and failed some more")
			})
			st0.Errorf("and parent failed")
		})
	})

	assert.False(t, result.OK())
	require.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 2)

	assert.Len(t, result.Tests[0].Errors, 0)

	assert.Equal(t, TestID{"parent", "subtest2"}, result.Tests[1].TestID)
	require.Len(t, result.Tests[1].Errors, 2)
	assert.Equal(t, "failed because reasons", result.Tests[1].Errors[0].Error())
	assert.Equal(t, "and failed some more", result.Tests[1].Errors[1].Error())

	assert.Equal(t, TestID{"parent"}, result.Tests[2].TestID)
	require.Len(t, result.Tests[2].Errors, 1)
	assert.Equal(t, "and parent failed", result.Tests[2].Errors[0].Error())
}

func TestTestScopeSkippedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(st *T) {
		st.Run("parent", func(st0 *T) {
			st0.Run("subtest1", func(st1 *T) {
				st1.Skip()
			})
			st0.Run("subtest2", func(st2 *T) {
				st2.SkipWithReason("why not")
			})
		})
	})

	assert.True(t, result.OK())
	require.Len(t, result.Tests, 2)
	assert.Equal(t, TestID{"parent"}, result.Tests[0].TestID)
	assert.Nil(t, result.Tests[1].TestID)
}

func TestTestScopeUnexpectedPanic(t *testing.T) {
	result := Run(TestConfiguration{}, func(st *T) {
		st.Run("panics", func(st *T) {
			panic("boom")
		})
	})
	require.Len(t, result.Failures, 1)
	require.Len(t, result.Failures[0].Errors, 1)
	assert.Contains(t, result.Failures[0].Errors[0].Error(), "unexpected panic in test: boom")
}

func TestTestScopeFilter(t *testing.T) {
	filter := func(id TestID) bool {
		return len(id) == 0 || id[0] == "b"
	}

	result := Run(TestConfiguration{Filter: filter}, func(st *T) {
		st.Run("a", func(st0 *T) {
			st0.Run("sub1a", func(st1 *T) {})
			st0.Run("sub2a", func(st1 *T) {})
		})
		st.Run("b", func(st0 *T) {
			st0.Run("sub1b", func(st1 *T) {})
			st0.Run("sub2b", func(st1 *T) {})
		})
	})

	assert.True(t, result.OK())
	require.Len(t, result.Tests, 4)
	assert.Equal(t, TestID{"b", "sub1b"}, result.Tests[0].TestID)
	assert.Equal(t, TestID{"b", "sub2b"}, result.Tests[1].TestID)
	assert.Equal(t, TestID{"b"}, result.Tests[2].TestID)
	assert.Equal(t, TestID(nil), result.Tests[3].TestID)
}

func TestDeferRunsInReverseOrderOnEveryExitPath(t *testing.T) {
	for _, exit := range []string{"pass", "error", "fail now", "panic"} {
		t.Run(exit, func(t *testing.T) {
			var calls []string
			_ = Run(TestConfiguration{}, func(st *T) {
				st.Run("x", func(st *T) {
					st.Defer(func() { calls = append(calls, "first") })
					st.Defer(func() { calls = append(calls, "second") })
					switch exit {
					case "error":
						st.Errorf("oops")
					case "fail now":
						st.FailNow()
					case "panic":
						panic("oops")
					}
				})
			})
			assert.Equal(t, []string{"second", "first"}, calls)
		})
	}
}

func TestFailureInDeferIsAttributedToScope(t *testing.T) {
	secondCleanupRan := false
	result := Run(TestConfiguration{}, func(st *T) {
		st.Run("x", func(st *T) {
			st.Defer(func() { secondCleanupRan = true })
			st.Defer(func() {
				require.Fail(st, "teardown failed")
			})
		})
	})
	assert.True(t, secondCleanupRan)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, TestID{"x"}, result.Failures[0].TestID)
	require.Len(t, result.Failures[0].Errors, 1)
	assert.Contains(t, result.Failures[0].Errors[0].Error(), "teardown failed")
}

func TestDebugOutputGoesToTestLogger(t *testing.T) {
	logger := &recordingTestLogger{}
	_ = Run(TestConfiguration{TestLogger: logger}, func(st *T) {
		st.Debug("in root")
		st.Run("x", func(st *T) {
			st.Debug("in %s", "x")
		})
	})
	require.Len(t, logger.finished, 1)
	output := logger.finished[0].output
	require.Len(t, output, 2)
	assert.Equal(t, "in root", output[0].Message)
	assert.Equal(t, "in x", output[1].Message)
}

func TestSetPropertyIsReportedInResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(st *T) {
		st.Run("scenario", func(st *T) {
			st.SetProperty("fixture.id", "1")
			st.SetProperty("fixture.id", "2")
			st.FailNow()
		})
	})
	require.Len(t, result.Failures, 1)
	assert.Equal(t, map[string]string{"fixture.id": "2"}, result.Failures[0].Properties)
	assert.Nil(t, result.Tests[1].Properties)
}
