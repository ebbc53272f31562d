package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

const minPasswordLength = 8

// Store is the persistence required by the service.
type Store interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, params models.ListParams) ([]models.User, int64, error)
	Replace(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// Blacklist records revoked tokens.
type Blacklist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Input is the writable surface of an account.
type Input struct {
	Email      string      `json:"email"`
	MotDePasse string      `json:"motDePasse"`
	Nom        string      `json:"nom"`
	Prenom     string      `json:"prenom"`
	Role       models.Role `json:"role"`
	Actif      *bool       `json:"actif"`
}

// Service implements account and authentication use cases.
type Service struct {
	store     Store
	blacklist Blacklist
	secret    []byte
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the account service. Tokens are signed with secret and
// live for ttl.
func NewService(store Store, blacklist Blacklist, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		blacklist: blacklist,
		secret:    []byte(secret),
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Create registers an account with a hashed password.
func (s *Service) Create(ctx context.Context, in Input) (*models.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.MotDePasse) < minPasswordLength {
		return nil, models.Validationf("le mot de passe doit contenir au moins %d caractères", minPasswordLength)
	}
	role := in.Role
	if role == "" {
		role = models.RoleTechnicien
	}
	if role != models.RoleAdmin && role != models.RoleTechnicien {
		return nil, models.Validationf("rôle inconnu: %s", role)
	}
	hash, err := hashPassword(in.MotDePasse)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &models.User{
		Email:        email,
		MotDePasse:   hash,
		Nom:          in.Nom,
		Prenom:       in.Prenom,
		Role:         role,
		Actif:        in.Actif == nil || *in.Actif,
		DateCreation: now,
		UpdatedAt:    now,
	}
	if err := s.store.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.store.FindByID(ctx, id)
}

// List returns a page of accounts.
func (s *Service) List(ctx context.Context, params models.ListParams) (models.Page[models.User], error) {
	params = params.Normalize()
	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return models.NewPage(items, params, total), nil
}

// Update edits an account. An empty password keeps the current one.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in Input) (*models.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != "" {
		email, err := normalizeEmail(in.Email)
		if err != nil {
			return nil, err
		}
		u.Email = email
	}
	if in.MotDePasse != "" {
		if len(in.MotDePasse) < minPasswordLength {
			return nil, models.Validationf("le mot de passe doit contenir au moins %d caractères", minPasswordLength)
		}
		hash, err := hashPassword(in.MotDePasse)
		if err != nil {
			return nil, err
		}
		u.MotDePasse = hash
	}
	if in.Role != "" {
		if in.Role != models.RoleAdmin && in.Role != models.RoleTechnicien {
			return nil, models.Validationf("rôle inconnu: %s", in.Role)
		}
		u.Role = in.Role
	}
	if in.Actif != nil {
		u.Actif = *in.Actif
	}
	u.Nom = in.Nom
	u.Prenom = in.Prenom
	u.UpdatedAt = s.now()
	if err := s.store.Replace(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes an account. An account cannot delete itself.
func (s *Service) Delete(ctx context.Context, id, actor primitive.ObjectID) error {
	if id == actor {
		return models.Conflictf("impossible de supprimer son propre compte")
	}
	return s.store.Delete(ctx, id)
}

// SeedAdmin creates the first admin account when the user collection is
// empty. It is a no-op otherwise.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	u, err := s.Create(ctx, Input{Email: email, MotDePasse: password, Nom: "Administrateur", Role: models.RoleAdmin})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil
		}
		return err
	}
	s.logger.Info("seeded admin account", zap.String("email", u.Email))
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", models.Validationf("l'email est requis")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", models.Validationf("email invalide")
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
