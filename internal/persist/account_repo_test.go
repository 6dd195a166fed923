package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/config"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	testutil.AssertEqual(t, "matches", CheckPassword(hash, "hunter2"), true)
	testutil.AssertEqual(t, "wrong", CheckPassword(hash, "hunter3"), false)
	testutil.AssertEqual(t, "garbage hash", CheckPassword("not-a-hash", "hunter2"), false)
}

// TestAccountRepo runs against a real PostgreSQL when REALMSYNC_TEST_DSN is set.
func TestAccountRepo(t *testing.T) {
	dsn := os.Getenv("REALMSYNC_TEST_DSN")
	if dsn == "" {
		t.Skip("REALMSYNC_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, config.DatabaseConfig{DSN: dsn}, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	repo := NewAccountRepo(db)
	name := "test_" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		db.Pool.Exec(context.Background(), `DELETE FROM accounts WHERE name = $1`, name)
	})

	row, err := repo.Load(ctx, name)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if row != nil {
		t.Fatalf("expected no account, got %+v", row)
	}

	if _, err := repo.Create(ctx, name, "pw", "127.0.0.1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	row, err = repo.Load(ctx, name)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	testutil.AssertEqual(t, "ip", row.IP, "127.0.0.1")
	testutil.AssertEqual(t, "password", repo.ValidatePassword(row.PasswordHash, "pw"), true)

	if err := repo.UpdateLastActive(ctx, name, "10.0.0.1"); err != nil {
		t.Fatalf("update: %v", err)
	}
}
