package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fintrack/internal/core"
)

// RepositoryTestSuite exercises the SQLite repository against a fresh
// database file per test.
type RepositoryTestSuite struct {
	suite.Suite
	repo *SQLiteRepository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	dbPath := filepath.Join(s.T().TempDir(), "fintrack-test.db")
	repo, err := NewSQLiteRepository(dbPath)
	require.NoError(s.T(), err, "failed to open test database")
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *RepositoryTestSuite) createUser(username string, role core.Role) core.User {
	u, err := s.repo.CreateUser(s.ctx, username, "hash-"+username, role, nil)
	require.NoError(s.T(), err)
	return u
}

func (s *RepositoryTestSuite) createCategory(owner int64, name string, typ core.TransactionType) core.Category {
	c, err := s.repo.CreateCategory(s.ctx, core.Category{
		Name: name, Type: typ, Color: "#ff0000", CreatedByID: owner,
	})
	require.NoError(s.T(), err)
	return c
}

func (s *RepositoryTestSuite) createTransaction(owner, categoryID int64, date string, cents int64, typ core.TransactionType) core.Transaction {
	d, err := core.ParseDate(date)
	require.NoError(s.T(), err)
	tx, err := s.repo.CreateTransaction(s.ctx, core.Transaction{
		Date:        d,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		CategoryID:  categoryID,
		Description: "test transaction",
		CreatedByID: owner,
	})
	require.NoError(s.T(), err)
	return tx
}

func (s *RepositoryTestSuite) TestCreateAndGetUser() {
	u := s.createUser("alice", core.RoleAdmin)

	assert.Equal(s.T(), "alice", u.Username)
	assert.Equal(s.T(), core.RoleAdmin, u.Role)
	assert.True(s.T(), u.IsActive)
	assert.True(s.T(), u.MustChangePassword)

	byName, err := s.repo.GetUserByUsername(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.ID, byName.ID)
}

func (s *RepositoryTestSuite) TestDuplicateUsernameRejected() {
	s.createUser("alice", core.RoleViewer)
	_, err := s.repo.CreateUser(s.ctx, "alice", "other-hash", core.RoleViewer, nil)
	assert.Error(s.T(), err)
}

func (s *RepositoryTestSuite) TestGetUserNotFound() {
	_, err := s.repo.GetUserByID(s.ctx, 9999)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
}

func (s *RepositoryTestSuite) TestUpdateUserPartialFields() {
	u := s.createUser("bob", core.RoleViewer)

	newRole := core.RoleAdmin
	updated, err := s.repo.UpdateUser(s.ctx, u.ID, UserUpdate{Role: &newRole})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.RoleAdmin, updated.Role)
	assert.True(s.T(), updated.IsActive, "untouched fields keep their value")

	inactive := false
	updated, err = s.repo.UpdateUser(s.ctx, u.ID, UserUpdate{IsActive: &inactive})
	require.NoError(s.T(), err)
	assert.False(s.T(), updated.IsActive)
	assert.Equal(s.T(), core.RoleAdmin, updated.Role)
}

func (s *RepositoryTestSuite) TestPasswordResetFlagsForcedChange() {
	u := s.createUser("carol", core.RoleViewer)
	require.NoError(s.T(), s.repo.ChangePassword(s.ctx, u.ID, "settled-hash"))

	u2, err := s.repo.GetUserByID(s.ctx, u.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), u2.MustChangePassword)

	hash := "reset-hash"
	u3, err := s.repo.UpdateUser(s.ctx, u.ID, UserUpdate{PasswordHash: &hash})
	require.NoError(s.T(), err)
	assert.True(s.T(), u3.MustChangePassword, "admin reset forces a change on next login")
}

func (s *RepositoryTestSuite) TestDeleteUser() {
	u := s.createUser("gone", core.RoleViewer)
	require.NoError(s.T(), s.repo.DeleteUser(s.ctx, u.ID))

	_, err := s.repo.GetUserByID(s.ctx, u.ID)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
	assert.ErrorIs(s.T(), s.repo.DeleteUser(s.ctx, u.ID), core.ErrNotFound)
}

func (s *RepositoryTestSuite) TestCategoryLifecycle() {
	owner := s.createUser("owner", core.RoleAdmin)
	c := s.createCategory(owner.ID, "Groceries", core.Expense)

	c.Name = "Food"
	c.Color = "#00ff00"
	updated, err := s.repo.UpdateCategory(s.ctx, c)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Food", updated.Name)

	require.NoError(s.T(), s.repo.DeleteCategory(s.ctx, c.ID))
	_, err = s.repo.GetCategory(s.ctx, c.ID)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
}

func (s *RepositoryTestSuite) TestDeleteCategoryBlockedWhileReferenced() {
	owner := s.createUser("owner", core.RoleAdmin)
	c := s.createCategory(owner.ID, "Groceries", core.Expense)
	tx := s.createTransaction(owner.ID, c.ID, "2025-03-10", 4250, core.Expense)

	err := s.repo.DeleteCategory(s.ctx, c.ID)
	assert.ErrorIs(s.T(), err, ErrCategoryInUse)

	require.NoError(s.T(), s.repo.DeleteTransaction(s.ctx, tx.ID))
	assert.NoError(s.T(), s.repo.DeleteCategory(s.ctx, c.ID))
}

func (s *RepositoryTestSuite) TestListCategoriesScopedToOwner() {
	a := s.createUser("a", core.RoleAdmin)
	b := s.createUser("b", core.RoleAdmin)
	s.createCategory(a.ID, "Zeta", core.Expense)
	s.createCategory(a.ID, "Alpha", core.Income)
	s.createCategory(b.ID, "Other", core.Expense)

	cats, err := s.repo.ListCategories(s.ctx, a.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), cats, 2)
	assert.Equal(s.T(), "Alpha", cats[0].Name, "ordered by name")
	assert.Equal(s.T(), "Zeta", cats[1].Name)
}

func (s *RepositoryTestSuite) TestTransactionRoundTrip() {
	owner := s.createUser("owner", core.RoleAdmin)
	c := s.createCategory(owner.ID, "Groceries", core.Expense)
	tx := s.createTransaction(owner.ID, c.ID, "2025-03-10", 4250, core.Expense)

	got, err := s.repo.GetTransaction(s.ctx, tx.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(4250), got.Amount.Cents)
	assert.Equal(s.T(), "2025-03-10", got.Date.Format(core.DateLayout))
	require.NotNil(s.T(), got.Category)
	assert.Equal(s.T(), "Groceries", got.Category.Name)
}

func (s *RepositoryTestSuite) TestListTransactionsFiltersAndOrder() {
	owner := s.createUser("owner", core.RoleAdmin)
	other := s.createUser("other", core.RoleAdmin)
	food := s.createCategory(owner.ID, "Food", core.Expense)
	salary := s.createCategory(owner.ID, "Salary", core.Income)
	theirs := s.createCategory(other.ID, "Theirs", core.Expense)

	s.createTransaction(owner.ID, food.ID, "2025-01-05", 1000, core.Expense)
	s.createTransaction(owner.ID, food.ID, "2025-02-15", 2000, core.Expense)
	s.createTransaction(owner.ID, salary.ID, "2025-02-01", 300000, core.Income)
	s.createTransaction(other.ID, theirs.ID, "2025-02-10", 9999, core.Expense)

	all, err := s.repo.ListTransactions(s.ctx, TransactionFilter{OwnerID: owner.ID})
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 3, "scoped to owner")
	assert.Equal(s.T(), "2025-02-15", all[0].Date.Format(core.DateLayout), "newest first")

	start, _ := core.ParseDate("2025-02-01")
	end, _ := core.ParseDate("2025-02-28")
	feb, err := s.repo.ListTransactions(s.ctx, TransactionFilter{
		OwnerID: owner.ID, StartDate: &start, EndDate: &end,
	})
	require.NoError(s.T(), err)
	assert.Len(s.T(), feb, 2)

	incomes, err := s.repo.ListTransactions(s.ctx, TransactionFilter{
		OwnerID: owner.ID, Type: core.Income,
	})
	require.NoError(s.T(), err)
	require.Len(s.T(), incomes, 1)
	assert.Equal(s.T(), int64(300000), incomes[0].Amount.Cents)

	byCat, err := s.repo.ListTransactions(s.ctx, TransactionFilter{
		OwnerID: owner.ID, CategoryID: food.ID,
	})
	require.NoError(s.T(), err)
	assert.Len(s.T(), byCat, 2)
}

func (s *RepositoryTestSuite) TestUpdateTransaction() {
	owner := s.createUser("owner", core.RoleAdmin)
	c := s.createCategory(owner.ID, "Food", core.Expense)
	tx := s.createTransaction(owner.ID, c.ID, "2025-03-10", 4250, core.Expense)

	tx.Amount.Cents = 5000
	tx.Description = "updated"
	updated, err := s.repo.UpdateTransaction(s.ctx, tx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(5000), updated.Amount.Cents)
	assert.Equal(s.T(), "updated", updated.Description)

	tx.ID = 9999
	_, err = s.repo.UpdateTransaction(s.ctx, tx)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
}

func (s *RepositoryTestSuite) TestAuditTrail() {
	u := s.createUser("actor", core.RoleAdmin)

	for _, action := range []string{"login", "create", "delete"} {
		require.NoError(s.T(), s.repo.AppendAudit(s.ctx, core.AuditEntry{
			UserID: u.ID, Action: action, Entity: "transaction", EntityID: 1,
		}))
	}

	entries, err := s.repo.ListAuditLogs(s.ctx, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 3)
	assert.Equal(s.T(), "delete", entries[0].Action, "newest first")
	assert.Equal(s.T(), "actor", entries[0].Username)

	limited, err := s.repo.ListAuditLogs(s.ctx, 2)
	require.NoError(s.T(), err)
	assert.Len(s.T(), limited, 2)
}

func (s *RepositoryTestSuite) TestSessionLifecycle() {
	u := s.createUser("sess", core.RoleViewer)
	expires := time.Now().Add(7 * 24 * time.Hour)

	require.NoError(s.T(), s.repo.CreateSession(s.ctx, core.Session{
		Token: "tok-1", UserID: u.ID, ExpiresAt: expires,
	}))

	got, err := s.repo.GetSession(s.ctx, "tok-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.ID, got.UserID)
	require.NotNil(s.T(), got.User)
	assert.Equal(s.T(), "sess", got.User.Username)

	later := expires.Add(24 * time.Hour)
	require.NoError(s.T(), s.repo.ExtendSession(s.ctx, "tok-1", later))
	got, err = s.repo.GetSession(s.ctx, "tok-1")
	require.NoError(s.T(), err)
	assert.True(s.T(), got.ExpiresAt.After(expires))

	require.NoError(s.T(), s.repo.DeleteSession(s.ctx, "tok-1"))
	_, err = s.repo.GetSession(s.ctx, "tok-1")
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
}

func (s *RepositoryTestSuite) TestPurgeExpiredSessions() {
	u := s.createUser("sess", core.RoleViewer)
	now := time.Now()

	require.NoError(s.T(), s.repo.CreateSession(s.ctx, core.Session{
		Token: "old", UserID: u.ID, ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(s.T(), s.repo.CreateSession(s.ctx, core.Session{
		Token: "live", UserID: u.ID, ExpiresAt: now.Add(time.Hour),
	}))

	n, err := s.repo.PurgeExpiredSessions(s.ctx, now)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)

	_, err = s.repo.GetSession(s.ctx, "old")
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
	_, err = s.repo.GetSession(s.ctx, "live")
	assert.NoError(s.T(), err)
}

func (s *RepositoryTestSuite) TestSettings() {
	_, err := s.repo.GetSetting(s.ctx, "theme")
	assert.ErrorIs(s.T(), err, core.ErrNotFound)

	require.NoError(s.T(), s.repo.SetSetting(s.ctx, "theme", "dark"))
	v, err := s.repo.GetSetting(s.ctx, "theme")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "dark", v)

	require.NoError(s.T(), s.repo.SetSetting(s.ctx, "theme", "light"))
	v, err = s.repo.GetSetting(s.ctx, "theme")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "light", v)
}

func (s *RepositoryTestSuite) TestBackupAndRestore() {
	owner := s.createUser("owner", core.RoleAdmin)
	c := s.createCategory(owner.ID, "Food", core.Expense)
	s.createTransaction(owner.ID, c.ID, "2025-03-10", 4250, core.Expense)

	dest := filepath.Join(s.T().TempDir(), "backup.db")
	require.NoError(s.T(), s.repo.BackupTo(s.ctx, dest))

	restored, err := NewSQLiteRepository(dest)
	require.NoError(s.T(), err)
	defer restored.Close()

	txs, err := restored.ListTransactions(s.ctx, TransactionFilter{OwnerID: owner.ID})
	require.NoError(s.T(), err)
	assert.Len(s.T(), txs, 1)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
