package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"FileShelf/internal/model"
	"FileShelf/internal/repo"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// IdentityStore владеет указателем на активного пользователя.
type IdentityStore struct {
	backend repo.Backend
	logger  *zap.SugaredLogger
	now     func() time.Time

	mu        sync.Mutex
	lastStamp int64 // последний выданный timestamp, чтобы id не повторялись
}

// NewIdentityStore создаёт хранилище. now == nil означает time.Now.
func NewIdentityStore(b repo.Backend, logger *zap.SugaredLogger, now func() time.Time) *IdentityStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if now == nil {
		now = time.Now
	}
	return &IdentityStore{backend: b, logger: logger, now: now}
}

var unsafeNameRe = regexp.MustCompile(`[^\p{L}\p{N}._-]`)

// sanitizeName делает имя пригодным для ключа хранилища.
func sanitizeName(name string) string {
	return unsafeNameRe.ReplaceAllString(name, "_")
}

// secretDigest приводит секрет любой длины к 64 байтам: bcrypt не принимает больше 72.
func secretDigest(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return []byte(hex.EncodeToString(sum[:]))
}

// Register создаёт нового пользователя и делает его активным.
// Предыдущий активный пользователь заменяется, его файлы остаются под своим ключом.
func (s *IdentityStore) Register(displayName, secret string) (*model.UserIdentity, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrValidation)
	}

	var hash string
	if secret != "" {
		h, err := bcrypt.GenerateFromPassword(secretDigest(secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash secret: %w", err)
		}
		hash = string(h)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	userID, err := s.mintUserID(sanitizeName(name), now)
	if err != nil {
		return nil, err
	}
	u := &model.UserIdentity{
		UserID:      userID,
		DisplayName: name,
		HasSecret:   secret != "",
		SecretHash:  hash,
		CreatedAt:   now.UTC(),
		LastSeenAt:  now.UTC(),
	}
	if err := s.save(u); err != nil {
		return nil, err
	}
	if _, ok, err := s.backend.Get(repo.FilesKey(userID)); err != nil {
		return nil, err
	} else if !ok {
		if err := s.backend.Set(repo.FilesKey(userID), "[]"); err != nil {
			return nil, fmt.Errorf("init collection: %w", err)
		}
	}
	s.logger.Infow("identity registered", "user_id", userID)
	return u, nil
}

// mintUserID подбирает timestamp, который ещё не выдавался и под которым нет коллекции.
func (s *IdentityStore) mintUserID(safe string, now time.Time) (string, error) {
	stamp := now.UnixMilli()
	if stamp <= s.lastStamp {
		stamp = s.lastStamp + 1
	}
	for {
		id := fmt.Sprintf("user_%s_%d", safe, stamp)
		_, taken, err := s.backend.Get(repo.FilesKey(id))
		if err != nil {
			return "", err
		}
		if !taken {
			s.lastStamp = stamp
			return id, nil
		}
		stamp++
	}
}

func (s *IdentityStore) save(u *model.UserIdentity) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := s.backend.Set(repo.ActiveUserKey, string(b)); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// read возвращает сохранённого активного пользователя без обновления lastSeenAt.
// Повреждённые данные трактуются как отсутствие пользователя.
func (s *IdentityStore) read() *model.UserIdentity {
	raw, ok, err := s.backend.Get(repo.ActiveUserKey)
	if err != nil {
		s.logger.Warnw("read active identity", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var u model.UserIdentity
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.UserID == "" {
		s.logger.Warnw("malformed active identity ignored", "error", err)
		return nil
	}
	return &u
}

// LoadActive читает активного пользователя и обновляет lastSeenAt. Никогда не падает.
func (s *IdentityStore) LoadActive() *model.UserIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.read()
	if u == nil {
		return nil
	}
	u.LastSeenAt = s.now().UTC()
	if err := s.save(u); err != nil {
		s.logger.Warnw("refresh last seen", "user_id", u.UserID, "error", err)
	}
	return u
}

// Active возвращает активного пользователя или ErrNoActiveIdentity.
func (s *IdentityStore) Active() (*model.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.read(); u != nil {
		return u, nil
	}
	return nil, ErrNoActiveIdentity
}

// ClearActive убирает только указатель; коллекция остаётся под своим ключом.
func (s *IdentityStore) ClearActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Remove(repo.ActiveUserKey); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}

// activeID — короткий путь для репозитория файлов.
func (s *IdentityStore) activeID() (string, error) {
	u, err := s.Active()
	if err != nil {
		return "", err
	}
	return u.UserID, nil
}
