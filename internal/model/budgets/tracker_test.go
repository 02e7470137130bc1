package budgets

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"max.ks1230/bookkeeper/internal/entity/budget"
	"max.ks1230/bookkeeper/internal/entity/expense"
	"max.ks1230/bookkeeper/internal/model/storage"
)

type configMock struct {
	mock.Mock
}

func (m *configMock) Location() *time.Location {
	args := m.Called()
	return args.Get(0).(*time.Location)
}

type expenseStorageMock struct {
	mock.Mock
}

func (m *expenseStorageMock) ScanRange(ctx context.Context, field string, from, to any) ([]*expense.Record, error) {
	args := m.Called(ctx, field, from, to)
	recs, _ := args.Get(0).([]*expense.Record)
	return recs, args.Error(1)
}

func utcConfig(t *testing.T) *configMock {
	cfg := &configMock{}
	cfg.On("Location").Return(time.UTC)
	t.Cleanup(func() { cfg.AssertExpectations(t) })
	return cfg
}

// TrackerTestSuite runs reconciliation against a real record store.
type TrackerTestSuite struct {
	suite.Suite
	ctx      context.Context
	open     func() (storage.Store[*expense.Record], storage.Store[*budget.Record], func())
	expenses storage.Store[*expense.Record]
	budgets  storage.Store[*budget.Record]
	close    func()
	tracker  *Tracker
}

func (suite *TrackerTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.expenses, suite.budgets, suite.close = suite.open()
	suite.tracker = NewTracker(utcConfig(suite.T()), suite.expenses, suite.budgets)
}

func (suite *TrackerTestSuite) TearDownTest() {
	suite.close()
}

func (suite *TrackerTestSuite) TestDaySumsOnlyToday() {
	suite.addExpense(100, "2024-03-06")
	suite.addExpense(250, "2024-03-06")
	suite.addExpense(9999, "2024-03-05")

	b := suite.newBudget("day")
	require.NoError(suite.T(), suite.tracker.Recompute(suite.ctx, b, at("2024-03-06", 18)))
	assert.Equal(suite.T(), int64(350), b.Spent)
}

func (suite *TrackerTestSuite) TestWeekSumsMondayToSundayFromAnyDay() {
	monday := day("2024-03-04")
	var want int64
	for i := 0; i < 7; i++ {
		amount := int64(1) << i
		want += amount
		suite.addExpense(amount, monday.AddDate(0, 0, i).Format(expense.DateLayout))
	}
	suite.addExpense(1000, "2024-03-11")
	suite.addExpense(2000, "2024-03-03")

	for i := 0; i < 7; i++ {
		asOf := monday.AddDate(0, 0, i).Add(time.Duration(3*i) * time.Hour)
		suite.Run(asOf.Weekday().String(), func() {
			b := suite.newBudget("week")
			require.NoError(suite.T(), suite.tracker.Recompute(suite.ctx, b, asOf))
			assert.Equal(suite.T(), want, b.Spent)
		})
	}
}

func (suite *TrackerTestSuite) TestMonthSumsWholeCalendarMonth() {
	suite.addExpense(500, "2024-03-05")
	suite.addExpense(700, "2024-03-31")
	suite.addExpense(9000, "2024-04-01")
	suite.addExpense(8000, "2024-02-29")

	for d := 1; d <= 31; d++ {
		asOf := at(fmt.Sprintf("2024-03-%02d", d), 12)
		b := suite.newBudget("month")
		require.NoError(suite.T(), suite.tracker.Recompute(suite.ctx, b, asOf))
		assert.Equal(suite.T(), int64(1200), b.Spent, "as of %s", asOf)
	}
}

func (suite *TrackerTestSuite) TestIgnoresCategory() {
	for cat := int64(0); cat < 3; cat++ {
		_, err := suite.expenses.Insert(suite.ctx, expense.New(10, cat, day("2024-03-06"), ""))
		require.NoError(suite.T(), err)
	}

	b := suite.newBudget("day")
	require.NoError(suite.T(), suite.tracker.Recompute(suite.ctx, b, at("2024-03-06", 8)))
	assert.Equal(suite.T(), int64(30), b.Spent)
}

func (suite *TrackerTestSuite) TestNoExpensesGivesZero() {
	suite.addExpense(400, "2024-01-15")

	b := suite.newBudget("month")
	b.Spent = 55
	require.NoError(suite.T(), suite.tracker.Recompute(suite.ctx, b, at("2024-03-06", 8)))
	assert.Zero(suite.T(), b.Spent)
}

func (suite *TrackerTestSuite) TestRecomputeDoesNotPersist() {
	suite.addExpense(100, "2024-03-06")
	b := suite.newBudget("day")
	_, err := suite.budgets.Insert(suite.ctx, b)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.tracker.Recompute(suite.ctx, b, at("2024-03-06", 8)))
	assert.Equal(suite.T(), int64(100), b.Spent)

	stored, err := suite.budgets.Get(suite.ctx, b.Key)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), stored.Spent)
}

func (suite *TrackerTestSuite) TestRefreshAllPersistsEveryBudget() {
	suite.addExpense(100, "2024-03-06")
	suite.addExpense(20, "2024-03-04")
	suite.addExpense(3, "2024-03-20")

	want := map[string]int64{"day": 100, "week": 120, "month": 123}
	for period := range want {
		_, err := suite.budgets.Insert(suite.ctx, suite.newBudget(period))
		require.NoError(suite.T(), err)
	}

	refreshed, err := suite.tracker.RefreshAll(suite.ctx, at("2024-03-06", 20))
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), refreshed, 3)

	stored, err := suite.budgets.Scan(suite.ctx, nil)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), stored, 3)
	for _, b := range stored {
		assert.Equal(suite.T(), want[string(b.Period)], b.Spent, "period %s", b.Period)
	}
}

func (suite *TrackerTestSuite) addExpense(amount int64, date string) {
	_, err := suite.expenses.Insert(suite.ctx, expense.New(amount, 1, day(date), ""))
	require.NoError(suite.T(), err)
}

func (suite *TrackerTestSuite) newBudget(period string) *budget.Record {
	b, err := budget.New(1000, period)
	require.NoError(suite.T(), err)
	return b
}

func TestTrackerWithSQLiteSuite(t *testing.T) {
	suite.Run(t, &TrackerTestSuite{
		open: func() (storage.Store[*expense.Record], storage.Store[*budget.Record], func()) {
			ctx := context.Background()
			db, err := storage.OpenSQLite(":memory:")
			require.NoError(t, err)
			expenses, err := storage.NewSQLiteStore(ctx, db, storage.ExpenseTable)
			require.NoError(t, err)
			budgets, err := storage.NewSQLiteStore(ctx, db, storage.BudgetTable)
			require.NoError(t, err)
			return expenses, budgets, func() { _ = db.Close() }
		},
	})
}

func TestTrackerWithMemorySuite(t *testing.T) {
	suite.Run(t, &TrackerTestSuite{
		open: func() (storage.Store[*expense.Record], storage.Store[*budget.Record], func()) {
			return storage.NewMemoryStore(storage.ExpenseTable), storage.NewMemoryStore(storage.BudgetTable), func() {}
		},
	})
}

func Test_OnRecompute_ShouldQueryDateRangeOnce(t *testing.T) {
	ctx := context.Background()
	expenses := &expenseStorageMock{}
	expenses.
		On("ScanRange", mock.Anything, storage.FieldExpenseDate, day("2024-03-04"), day("2024-03-10")).
		Return([]*expense.Record{{Amount: 40}, {Amount: 2}}, nil).
		Once()

	tracker := NewTracker(utcConfig(t), expenses, nil)
	b := &budget.Record{Limitation: 10, Period: budget.Week}

	require.NoError(t, tracker.Recompute(ctx, b, at("2024-03-07", 11)))
	assert.Equal(t, int64(42), b.Spent)
	assert.True(t, b.Exceeded())
	expenses.AssertExpectations(t)
}

func Test_OnStorageError_ShouldKeepSpentAndSurfaceError(t *testing.T) {
	ctx := context.Background()
	storageErr := errors.New("disk I/O error")
	expenses := &expenseStorageMock{}
	expenses.
		On("ScanRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, storageErr)

	tracker := NewTracker(utcConfig(t), expenses, nil)
	b := &budget.Record{Limitation: 10, Period: budget.Day, Spent: 7}

	err := tracker.Recompute(ctx, b, at("2024-03-07", 11))
	assert.True(t, errors.Is(err, storageErr))
	assert.Equal(t, int64(7), b.Spent)
}
