// internal/app/system/orgverify/service.go
//
// Package orgverify links users to organizations, either by proving
// ownership of an address in the organization's email domain with a
// short-lived code, or by entering the organization's join code.
package orgverify

import (
	"context"
	"errors"
	"fmt"
	"time"

	orgmembershipstore "github.com/dalemusser/coachhub/internal/app/store/orgmemberships"
	organizationstore "github.com/dalemusser/coachhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/store/verifycodes"
	"github.com/dalemusser/coachhub/internal/app/system/mailer"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/txn"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Organizations looks up organizations.
type Organizations interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
	GetByCode(ctx context.Context, code string) (models.Organization, error)
}

// Users looks up users.
type Users interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Memberships reads and writes organization memberships.
type Memberships interface {
	Exists(ctx context.Context, userID, orgID primitive.ObjectID) (bool, error)
	Add(ctx context.Context, userID, orgID primitive.ObjectID, orgEmail, role string) (models.OrganizationMembership, error)
}

// Codes stores issued verification codes.
type Codes interface {
	Issue(ctx context.Context, email string, orgID, userID primitive.ObjectID) (string, verifycodes.Code, error)
	Check(ctx context.Context, email, code string, userID primitive.ObjectID) (verifycodes.Code, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Consume(ctx context.Context, v verifycodes.Code) error
	Expiry() time.Duration
}

// Sender delivers a code to the user.
type Sender interface {
	SendVerificationCode(ctx context.Context, msg mailer.VerificationMessage) error
}

// TxFunc runs fn as one unit of work.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// Service issues and verifies organization codes.
type Service struct {
	orgs    Organizations
	users   Users
	members Memberships
	codes   Codes
	sender  Sender
	tx      TxFunc
	log     *zap.Logger
}

// New creates a Service from its collaborators. A nil tx runs work directly.
func New(orgs Organizations, users Users, members Memberships, codes Codes, sender Sender, tx TxFunc, log *zap.Logger) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{orgs: orgs, users: users, members: members, codes: codes, sender: sender, tx: tx, log: log}
}

// NewFromDB wires the Mongo stores. expiry <= 0 uses verifycodes.DefaultExpiry.
func NewFromDB(db *mongo.Database, sender Sender, expiry time.Duration, log *zap.Logger) *Service {
	tx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return txn.Run(ctx, db, log, fn)
	}
	return New(
		organizationstore.New(db),
		userstore.New(db),
		orgmembershipstore.New(db),
		verifycodes.New(db, expiry),
		sender,
		tx,
		log,
	)
}

// IssueResult describes a code that was sent.
type IssueResult struct {
	Email          string             `json:"email"`
	OrganizationID primitive.ObjectID `json:"organization_id"`
	ExpiresAt      time.Time          `json:"expires_at"`
}

// IssueCode sends a fresh code to email so userID can prove it belongs to
// the organization's email domain. Any earlier code for email is replaced.
//
// ErrInvalidInput: email has no domain. ErrNotFound: unknown or disabled
// user, unknown organization, or the organization does not claim the
// email's domain; no code is written. ErrConflict: already linked.
func (s *Service) IssueCode(ctx context.Context, userID primitive.ObjectID, email string, orgID primitive.ObjectID) (IssueResult, error) {
	email = normalize.Email(email)
	domain := normalize.EmailDomain(email)
	if domain == "" {
		return IssueResult{}, fmt.Errorf("email %q: %w", email, errs.ErrInvalidInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return IssueResult{}, fmt.Errorf("user: %w", errs.ErrNotFound)
		}
		return IssueResult{}, err
	}
	if !user.IsActive() {
		return IssueResult{}, fmt.Errorf("user: %w", errs.ErrNotFound)
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return IssueResult{}, fmt.Errorf("organization: %w", errs.ErrNotFound)
		}
		return IssueResult{}, err
	}
	if org.EmailDomain == "" || normalize.Domain(org.EmailDomain) != domain {
		return IssueResult{}, fmt.Errorf("organization with domain %q: %w", domain, errs.ErrNotFound)
	}

	linked, err := s.members.Exists(ctx, userID, orgID)
	if err != nil {
		return IssueResult{}, err
	}
	if linked {
		return IssueResult{}, fmt.Errorf("organization membership: %w", errs.ErrConflict)
	}

	plain, code, err := s.codes.Issue(ctx, email, orgID, userID)
	if err != nil {
		return IssueResult{}, err
	}

	msg := mailer.VerificationMessage{
		Email:   email,
		Phone:   user.Phone,
		OrgName: org.Name,
		Code:    plain,
		Expiry:  s.codes.Expiry(),
	}
	if err := s.sender.SendVerificationCode(ctx, msg); err != nil {
		if derr := s.codes.Delete(ctx, code.ID); derr != nil {
			s.log.Warn("failed to remove undelivered verification code", zap.Error(derr), zap.String("email", email))
		}
		return IssueResult{}, fmt.Errorf("deliver verification code: %w", err)
	}

	return IssueResult{Email: email, OrganizationID: orgID, ExpiresAt: code.ExpiresAt}, nil
}

// VerifyResult describes a successful verification.
type VerifyResult struct {
	OrganizationID primitive.ObjectID `json:"organization_id"`
	AlreadyLinked  bool               `json:"already_linked"`
}

var errAlreadyLinked = errors.New("already linked")

// VerifyCode checks code for email and links userID to the organization
// the code was issued for. The code is compared exactly as submitted and
// consumed on success.
//
// Errors from the code store (ErrNotFound, ErrExpired, ErrMismatch) are
// returned unchanged. An existing membership is not an error.
func (s *Service) VerifyCode(ctx context.Context, email, code string, userID primitive.ObjectID) (VerifyResult, error) {
	email = normalize.Email(email)
	if email == "" || code == "" {
		return VerifyResult{}, fmt.Errorf("email and code are required: %w", errs.ErrInvalidInput)
	}

	v, err := s.codes.Check(ctx, email, code, userID)
	if err != nil {
		return VerifyResult{}, err
	}

	res := VerifyResult{OrganizationID: v.OrganizationID}
	err = s.tx(ctx, func(ctx context.Context) error {
		linked, err := s.members.Exists(ctx, userID, v.OrganizationID)
		if err != nil {
			return err
		}
		if !linked {
			_, err := s.members.Add(ctx, userID, v.OrganizationID, email, models.OrgRoleMember)
			if errors.Is(err, orgmembershipstore.ErrDuplicateMembership) {
				// A concurrent verify won; the insert error aborted this transaction.
				return errAlreadyLinked
			}
			if err != nil {
				return err
			}
		} else {
			res.AlreadyLinked = true
		}
		return s.codes.Consume(ctx, v)
	})
	if errors.Is(err, errAlreadyLinked) {
		res.AlreadyLinked = true
		err = s.codes.Consume(ctx, v)
	}
	if err != nil {
		return VerifyResult{}, err
	}
	return res, nil
}

// JoinByCode links userID to the organization whose join code is code.
// ErrNotFound: no organization has that code. ErrConflict: already linked.
func (s *Service) JoinByCode(ctx context.Context, userID primitive.ObjectID, code string) (models.Organization, error) {
	code = normalize.Code(code)
	if code == "" {
		return models.Organization{}, fmt.Errorf("code is required: %w", errs.ErrInvalidInput)
	}

	org, err := s.orgs.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Organization{}, fmt.Errorf("organization code: %w", errs.ErrNotFound)
		}
		return models.Organization{}, err
	}

	if _, err := s.members.Add(ctx, userID, org.ID, "", models.OrgRoleMember); err != nil {
		if errors.Is(err, orgmembershipstore.ErrDuplicateMembership) {
			return models.Organization{}, fmt.Errorf("organization membership: %w", errs.ErrConflict)
		}
		return models.Organization{}, err
	}
	return org, nil
}
