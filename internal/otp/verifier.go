// Package otp implements the one-time-passcode gate in front of user
// registration. Registration data is parked in a pending slot keyed by a
// session id until the emailed code is confirmed; only then is the user row
// committed.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/velo/internal/models"
)

var (
	// ErrVerifyFailure means the submitted code did not match. The pending
	// registration stays intact and the code may be resubmitted.
	ErrVerifyFailure = errors.New("invalid verification code")

	// ErrNoPendingRegistration means Confirm was called for a session with
	// no outstanding registration.
	ErrNoPendingRegistration = errors.New("no pending registration")

	// ErrCodeExpired means the pending registration outlived its TTL. The
	// slot is cleared and the flow must restart from Request.
	ErrCodeExpired = errors.New("verification code expired")

	// ErrTooManyAttempts means the attempt cap was exhausted. The slot is
	// cleared and the flow must restart from Request.
	ErrTooManyAttempts = errors.New("too many verification attempts")

	// ErrDuplicateRegistration means the email or phone is already taken.
	// Checked before any code is issued.
	ErrDuplicateRegistration = errors.New("user already exists")
)

// Registration carries the fields held until the code is confirmed. The
// password arrives already hashed; this package never sees plaintext secrets.
type Registration struct {
	Username     string
	Phone        string
	Email        string
	PasswordHash string
}

// CodeSender delivers a generated code to the registrant's contact address.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// Committer is the slice of the users store the verifier needs: the duplicate
// check at request time and the insert at confirm time.
type Committer interface {
	Exists(email, phone string) (bool, error)
	Commit(user *models.User) error
}

type pending struct {
	code      string
	reg       Registration
	expiresAt time.Time
	attempts  int
}

// Verifier owns the pending-registration slots. Slots live in a single
// mutex-guarded map keyed by session id, never in per-request state, so any
// worker can serve the confirm for a registration another worker started.
type Verifier struct {
	mu       sync.Mutex
	slots    map[string]*pending
	users    Committer
	sender   CodeSender
	ttl      time.Duration
	attempts int
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewVerifier constructs a Verifier and starts its expiry janitor.
// ttl bounds how long a code stays valid; maxAttempts bounds wrong guesses
// before the slot is discarded.
func NewVerifier(users Committer, sender CodeSender, ttl time.Duration, maxAttempts int) *Verifier {
	v := &Verifier{
		slots:    make(map[string]*pending),
		users:    users,
		sender:   sender,
		ttl:      ttl,
		attempts: maxAttempts,
		stopCh:   make(chan struct{}),
	}
	go v.janitor()
	return v
}

// Stop terminates the expiry janitor (useful for tests).
func (v *Verifier) Stop() {
	v.stopOnce.Do(func() { close(v.stopCh) })
}

// Request starts (or restarts) a registration. Duplicates are rejected before
// any code is issued. On success the generated code is dispatched through the
// CodeSender and the returned session id must be presented to Confirm.
// Requesting again with the same session id overwrites the previous slot,
// invalidating its code.
func (v *Verifier) Request(ctx context.Context, sessionID string, reg Registration) (string, error) {
	taken, err := v.users.Exists(reg.Email, reg.Phone)
	if err != nil {
		return "", err
	}
	if taken {
		return "", ErrDuplicateRegistration
	}

	code, err := GenerateCode()
	if err != nil {
		return "", err
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	v.mu.Lock()
	v.slots[sessionID] = &pending{
		code:      code,
		reg:       reg,
		expiresAt: time.Now().Add(v.ttl),
	}
	v.mu.Unlock()

	if err := v.sender.SendCode(ctx, reg.Email, code); err != nil {
		v.clear(sessionID)
		return "", err
	}

	return sessionID, nil
}

// Confirm matches the submitted code against the session's pending slot. A
// match commits the user and clears the slot; a mismatch leaves the slot
// intact until the attempt cap is hit.
func (v *Verifier) Confirm(ctx context.Context, sessionID, code string) (*models.User, error) {
	v.mu.Lock()
	slot, ok := v.slots[sessionID]
	if !ok {
		v.mu.Unlock()
		return nil, ErrNoPendingRegistration
	}

	if time.Now().After(slot.expiresAt) {
		delete(v.slots, sessionID)
		v.mu.Unlock()
		return nil, ErrCodeExpired
	}

	if slot.code != code {
		slot.attempts++
		if slot.attempts >= v.attempts {
			delete(v.slots, sessionID)
			v.mu.Unlock()
			return nil, ErrTooManyAttempts
		}
		v.mu.Unlock()
		return nil, ErrVerifyFailure
	}

	reg := slot.reg
	delete(v.slots, sessionID)
	v.mu.Unlock()

	user := &models.User{
		Username:     reg.Username,
		Phone:        reg.Phone,
		Email:        reg.Email,
		PasswordHash: reg.PasswordHash,
		Verified:     true,
	}
	if err := v.users.Commit(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (v *Verifier) clear(sessionID string) {
	v.mu.Lock()
	delete(v.slots, sessionID)
	v.mu.Unlock()
}

func (v *Verifier) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			v.mu.Lock()
			for id, slot := range v.slots {
				if now.After(slot.expiresAt) {
					delete(v.slots, id)
				}
			}
			v.mu.Unlock()
		case <-v.stopCh:
			return
		}
	}
}

// GenerateCode returns a uniformly random 6-digit code, leading zeros kept.
func GenerateCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
