package fixtures

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/employee-demo/employee-contract-tests/apiclient"
	"github.com/employee-demo/employee-contract-tests/apidef"
	"github.com/employee-demo/employee-contract-tests/ledger"
	"github.com/employee-demo/employee-contract-tests/mockapi"
)

func recordAll(t *testing.T, l ledger.Ledger, entries ...ledger.Entry) {
	for _, e := range entries {
		e.Namespace = ledger.DefaultNamespace
		require.NoError(t, l.Record(context.Background(), e))
	}
}

func TestSweep(t *testing.T) {
	service := mockapi.NewService(mockapi.WithEmployees(
		apidef.Employee{ID: 1, Name: "left", Address: "over", Email: "left.1@example.com"},
		apidef.Employee{ID: 3, Name: "someone", Address: "else", Email: "someone@example.com"},
	))
	withClient(t, service, func(client *apiclient.Client) {
		l := ledger.NewMemoryLedger()
		recordAll(t, l,
			ledger.Entry{ID: 1, Email: "left.1@example.com"},
			ledger.Entry{ID: 2, Email: "gone.2@example.com"},
			ledger.Entry{ID: 3, Email: "reused.3@example.com"},
		)

		result, err := NewSweeper(client, l, "", nil).Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, result.Deleted)
		assert.Equal(t, []int64{2}, result.Missing)
		assert.Equal(t, []int64{3}, result.Replaced)
		assert.Len(t, result.Failed, 0)

		assert.False(t, service.Contains(1))
		assert.True(t, service.Contains(3))
		pending, _ := l.Pending(context.Background(), ledger.DefaultNamespace)
		assert.Len(t, pending, 0)
	})
}

func TestSweepDeletesFixtureWhoseEmailWasChangedByItsRun(t *testing.T) {
	service := mockapi.NewService(mockapi.WithFault(http.MethodDelete, 500))
	withClient(t, service, func(client *apiclient.Client) {
		ctx := context.Background()
		l := ledger.NewMemoryLedger()
		manager := NewManager(client, ManagerConfig{Ledger: l, RunID: "run", Token: "1709294400123"})

		employee, err := manager.Setup(ctx, apidef.NewEmployeeParams("john doe", "123 main street",
			"john.doe1709294400123@example.com"))
		require.NoError(t, err)
		resp, err := client.Update(ctx, employee.ID, apidef.NewEmployeeParams("John Smith", "789 Oak Street",
			"johnsmith.updated.1709294400123@example.com"))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status)
		require.ErrorIs(t, manager.Teardown(ctx), ErrFixtureDelete)

		service.ClearFaults()
		result, err := NewSweeper(client, l, "", nil).Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{employee.ID}, result.Deleted)
		assert.Len(t, result.Replaced, 0)
		assert.False(t, service.Contains(employee.ID))
		pending, _ := l.Pending(ctx, ledger.DefaultNamespace)
		assert.Len(t, pending, 0)
	})
}

func TestSweepLeavesEmployeeWithAnotherRunsToken(t *testing.T) {
	service := mockapi.NewService(mockapi.WithEmployees(
		apidef.Employee{ID: 4, Name: "n", Address: "a", Email: "john.doe1709294499999@example.com"},
	))
	withClient(t, service, func(client *apiclient.Client) {
		l := ledger.NewMemoryLedger()
		recordAll(t, l, ledger.Entry{ID: 4, Email: "john.doe1709294400123@example.com", Token: "1709294400123"})

		result, err := NewSweeper(client, l, "", nil).Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []int64{4}, result.Replaced)
		assert.True(t, service.Contains(4))
	})
}

func TestSweepKeepsEntriesThatCouldNotBeDeleted(t *testing.T) {
	service := mockapi.NewService(
		mockapi.WithEmployees(apidef.Employee{ID: 1, Name: "a", Address: "b", Email: "a@example.com"}),
		mockapi.WithFault(http.MethodDelete, 500),
	)
	withClient(t, service, func(client *apiclient.Client) {
		l := ledger.NewMemoryLedger()
		recordAll(t, l, ledger.Entry{ID: 1, Email: "a@example.com"})

		result, err := NewSweeper(client, l, ledger.DefaultNamespace, nil).Sweep(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "employee 1")
		assert.Equal(t, []int64{1}, result.Failed)
		assert.True(t, service.Contains(1))
		pending, _ := l.Pending(context.Background(), ledger.DefaultNamespace)
		assert.Len(t, pending, 1)
	})
}

func TestSweepEmptyLedger(t *testing.T) {
	service := mockapi.NewService()
	withClient(t, service, func(client *apiclient.Client) {
		result, err := NewSweeper(client, ledger.NewMemoryLedger(), "", nil).Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, SweepResult{}, result)
		assert.Equal(t, 0, service.RequestCount())
	})
}
