package repositories

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/crypto/bcrypt"

	"friendtalk/internal/models"
	"friendtalk/internal/store"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// UserRepository abstracts user persistence.
type UserRepository interface {
	Register(ctx context.Context, username, password string) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	UpsertProfile(ctx context.Context, id, name, avatar string) (models.User, error)
	UpdateProfile(ctx context.Context, id, name, avatar string) (models.User, error)
	SetOnline(ctx context.Context, id string, online bool) error
	GetUser(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// UserRepo is a document-store implementation of UserRepository.
type UserRepo struct {
	store *store.Store
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(s *store.Store) *UserRepo {
	return &UserRepo{store: s}
}

// Register creates a persistent account. The username doubles as the
// user id and must be unique across all identities.
func (r *UserRepo) Register(ctx context.Context, username, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = r.store.Update(func(doc *store.Document) error {
		if _, ok := doc.Users[username]; ok {
			return ErrUsernameTaken
		}
		for _, u := range doc.Users {
			if u.Username == username {
				return ErrUsernameTaken
			}
		}
		user = models.User{
			ID:           username,
			Username:     username,
			DisplayName:  username,
			PasswordHash: string(hash),
			LastSeen:     time.Now().UTC(),
		}
		doc.Users[user.ID] = user
		return nil
	})
	return user, err
}

// Authenticate checks credentials against the stored hash.
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	found := false
	r.store.View(func(doc *store.Document) {
		for _, u := range doc.Users {
			if u.Username == username {
				user = u
				found = true
				return
			}
		}
	})
	if !found {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UpsertProfile binds or refreshes an anonymous identity, creating the
// record on first join and stamping lastSeen on every call.
func (r *UserRepo) UpsertProfile(ctx context.Context, id, name, avatar string) (models.User, error) {
	var user models.User
	err := r.store.Update(func(doc *store.Document) error {
		u, ok := doc.Users[id]
		if !ok {
			u = models.User{ID: id, Anonymous: true}
		}
		if name != "" {
			u.DisplayName = name
		} else if u.DisplayName == "" {
			u.DisplayName = "User-" + shortID(id)
		}
		if avatar != "" {
			u.AvatarRef = avatar
		}
		u.Online = true
		u.LastSeen = time.Now().UTC()
		doc.Users[id] = u
		user = u
		return nil
	})
	return user, err
}

// UpdateProfile mutates an existing user record. Empty fields keep
// their previous values.
func (r *UserRepo) UpdateProfile(ctx context.Context, id, name, avatar string) (models.User, error) {
	var user models.User
	err := r.store.Update(func(doc *store.Document) error {
		u, ok := doc.Users[id]
		if !ok {
			return ErrUserNotFound
		}
		if name != "" {
			u.DisplayName = name
		}
		if avatar != "" {
			u.AvatarRef = avatar
		}
		u.LastSeen = time.Now().UTC()
		doc.Users[id] = u
		user = u
		return nil
	})
	return user, err
}

// SetOnline flips the presence flag and stamps lastSeen.
func (r *UserRepo) SetOnline(ctx context.Context, id string, online bool) error {
	return r.store.Update(func(doc *store.Document) error {
		u, ok := doc.Users[id]
		if !ok {
			return ErrUserNotFound
		}
		u.Online = online
		u.LastSeen = time.Now().UTC()
		doc.Users[id] = u
		return nil
	})
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	found := false
	r.store.View(func(doc *store.Document) {
		user, found = doc.Users[id]
	})
	if !found {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns all known identities ordered by id.
func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	r.store.View(func(doc *store.Document) {
		for _, u := range doc.Users {
			users = append(users, u)
		}
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func shortID(id string) string {
	if len(id) > 4 {
		return id[:4]
	}
	return id
}
