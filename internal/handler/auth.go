package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/secure/precis"

	"github.com/l1jgo/realmsync/internal/net"
	"github.com/l1jgo/realmsync/internal/persist"
)

// ErrAccountBanned rejects a banned account at the handshake.
var ErrAccountBanned = errors.New("account banned")

// NormalizeAccount maps an account name to its canonical, case-folded form.
// Empty or non-conforming names are invalid credentials.
func NormalizeAccount(name string) (string, error) {
	out, err := precis.UsernameCaseMapped.String(name)
	if err != nil || out == "" {
		return "", fmt.Errorf("%w: account name %q", net.ErrInvalidCredentials, name)
	}
	return out, nil
}

// OpenAuth accepts any well-formed account name and ignores the password.
type OpenAuth struct{}

func (OpenAuth) Authenticate(_ context.Context, account, _, _ string) (string, error) {
	return NormalizeAccount(account)
}

// AccountStore is the slice of persist.AccountRepo used for authentication.
type AccountStore interface {
	Load(ctx context.Context, name string) (*persist.AccountRow, error)
	Create(ctx context.Context, name, rawPassword, ip string) (*persist.AccountRow, error)
	ValidatePassword(hash, rawPassword string) bool
	UpdateLastActive(ctx context.Context, name, ip string) error
}

// DBAuth checks bcrypt password hashes in the account store, optionally
// creating unknown accounts on first login.
type DBAuth struct {
	Accounts   AccountStore
	AutoCreate bool
	Log        *zap.Logger
}

func (a *DBAuth) Authenticate(ctx context.Context, account, password, ip string) (string, error) {
	name, err := NormalizeAccount(account)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row, err := a.Accounts.Load(ctx, name)
	if err != nil {
		a.Log.Error("load account failed", zap.String("account", name), zap.Error(err))
		return "", err
	}

	if row == nil {
		if !a.AutoCreate {
			return "", fmt.Errorf("%w: no account %q", net.ErrInvalidCredentials, name)
		}
		if _, err := a.Accounts.Create(ctx, name, password, ip); err != nil {
			a.Log.Error("create account failed", zap.String("account", name), zap.Error(err))
			return "", err
		}
		a.Log.Info("account created", zap.String("account", name))
		return name, nil
	}

	if !a.Accounts.ValidatePassword(row.PasswordHash, password) {
		return "", fmt.Errorf("%w: wrong password for %q", net.ErrInvalidCredentials, name)
	}
	if row.Banned {
		a.Log.Info("banned account refused", zap.String("account", name))
		return "", ErrAccountBanned
	}
	if err := a.Accounts.UpdateLastActive(ctx, name, ip); err != nil {
		a.Log.Error("update last active failed", zap.String("account", name), zap.Error(err))
	}
	return name, nil
}
