package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/logging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrUnauthorized = errors.New("authentication required")

type Handler struct {
	store   store.Store
	gateway *payment.Gateway
	logger  logrus.FieldLogger
	now     func() time.Time
}

func NewHandler(s store.Store, gateway *payment.Gateway, logger logrus.FieldLogger) *Handler {
	return &Handler{
		store:   s,
		gateway: gateway,
		logger:  logging.Component(logger, "command"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// emit writes an event to the outbox of the current transaction.
func (h *Handler) emit(ctx context.Context, tx store.Repository, eventType, key string, payload any, now time.Time) error {
	msg, err := store.NewOutboxMessage(eventType, key, payload, now)
	if err != nil {
		return err
	}
	return tx.InsertOutbox(ctx, msg)
}

// contact looks up who to notify. A missing user only costs the e-mail.
func (h *Handler) contact(ctx context.Context, tx store.Repository, userID string) (email, name string) {
	u, err := tx.GetUserByID(ctx, userID)
	if err != nil {
		h.logger.WithError(err).WithField("userId", userID).Warn("No contact for notification")
		return "", ""
	}
	return u.Email, u.Name
}

// Register creates a customer account
func (h *Handler) Register(ctx context.Context, cmd Register) (*user.User, error) {
	return h.register(ctx, cmd, user.RoleCustomer)
}

// RegisterAdmin creates an administrator account. It backs the startup
// bootstrap and the admin-only user endpoint.
func (h *Handler) RegisterAdmin(ctx context.Context, cmd Register) (*user.User, error) {
	return h.register(ctx, cmd, user.RoleAdmin)
}

// EnsureAdmin creates the configured administrator unless it already
// exists. A customer account holding the e-mail is an error, not promoted.
func (h *Handler) EnsureAdmin(ctx context.Context, cmd Register) (u *user.User, created bool, err error) {
	u, err = h.RegisterAdmin(ctx, cmd)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, user.ErrEmailTaken) {
		return nil, false, err
	}

	existing, err := h.store.GetUserByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, false, err
	}
	if !existing.IsAdmin() {
		return nil, false, fmt.Errorf("%w: %s belongs to a customer account", user.ErrEmailTaken, existing.Email)
	}
	return existing, false, nil
}

func (h *Handler) register(ctx context.Context, cmd Register, role user.Role) (*user.User, error) {
	hash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}

	now := h.now()
	u, err := user.New(uuid.New().String(), cmd.Email, cmd.Name, hash, role, now)
	if err != nil {
		return nil, err
	}

	err = h.store.WithTx(ctx, func(tx store.Repository) error {
		if err := tx.InsertUser(ctx, u); err != nil {
			return err
		}
		return h.emit(ctx, tx, user.EventUserRegistered, u.ID, user.UserRegistered{
			UserID:       u.ID,
			Email:        u.Email,
			Name:         u.Name,
			RegisteredAt: now,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	h.logger.WithFields(logrus.Fields{"userId": u.ID, "role": u.Role}).Info("User registered")
	return u, nil
}

// Login checks credentials. Unknown e-mail and wrong password are
// indistinguishable to the caller.
func (h *Handler) Login(ctx context.Context, cmd Login) (*user.User, error) {
	u, err := h.store.GetUserByEmail(ctx, cmd.Email)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, user.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(cmd.Password, u.PasswordHash) {
		return nil, user.ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword replaces the caller's password after checking the current
// one. Refresh tokens issued before the change stop working.
func (h *Handler) ChangePassword(ctx context.Context, cmd ChangePassword) (*user.User, error) {
	if cmd.UserID == "" {
		return nil, ErrUnauthorized
	}
	hash, err := auth.HashPassword(cmd.NewPassword)
	if err != nil {
		return nil, err
	}

	var updated *user.User
	err = h.store.WithTx(ctx, func(tx store.Repository) error {
		u, err := tx.GetUserByID(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if !auth.CheckPassword(cmd.CurrentPassword, u.PasswordHash) {
			return user.ErrWrongPassword
		}
		u.SetPassword(hash, h.now())
		if err := tx.UpdateUserPassword(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.WithField("userId", updated.ID).Info("Password changed")
	return updated, nil
}

// CreateProduct adds a product to the catalog
func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*product.Product, error) {
	p, err := product.New(uuid.New().String(), cmd.Name, cmd.Description, cmd.Category,
		cmd.Price, cmd.Stock, cmd.ImageURL, h.now())
	if err != nil {
		return nil, err
	}

	err = h.store.WithTx(ctx, func(tx store.Repository) error {
		if err := tx.InsertProduct(ctx, p); err != nil {
			return err
		}
		return h.emit(ctx, tx, product.EventProductCreated, p.ID, product.ProductCreated{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Price:     p.Price,
			Stock:     p.Stock,
			CreatedAt: p.CreatedAt,
		}, p.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// AddToCart adds quantity units of a product, merging with an existing line.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) error {
	if cmd.UserID == "" {
		return ErrUnauthorized
	}
	line := cart.Line{ProductID: cmd.ProductID, Quantity: cmd.Quantity}
	if err := line.Validate(); err != nil {
		return err
	}

	return h.store.WithTx(ctx, func(tx store.Repository) error {
		p, err := tx.GetProduct(ctx, cmd.ProductID)
		if err != nil {
			return err
		}

		lines, err := tx.GetCartLines(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		for _, existing := range lines {
			if existing.ProductID == line.ProductID {
				line.Quantity += existing.Quantity
			}
		}
		if err := line.Validate(); err != nil {
			return err
		}
		if err := p.Reserve(line.Quantity); err != nil {
			return err
		}
		return tx.SetCartLine(ctx, cmd.UserID, line)
	})
}

// RemoveFromCart removes an item from cart
func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) error {
	if cmd.UserID == "" {
		return ErrUnauthorized
	}
	if cmd.ProductID == "" {
		return cart.ErrInvalidCartItem
	}
	return h.store.DeleteCartLine(ctx, cmd.UserID, cmd.ProductID)
}
