package app

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
)

// Session один клиент конвейера: одновременно выполняется не больше одного
// распознавания. Новый вызов во время активного сразу получает KindBusy.
type Session struct {
	svc  *IdentificationService
	slot *semaphore.Weighted
}

// NewSession создаёт сессию поверх общего сервиса.
func NewSession(svc *IdentificationService) *Session {
	return &Session{svc: svc, slot: semaphore.NewWeighted(1)}
}

// Identify запускает конвейер, если слот свободен.
func (s *Session) Identify(ctx context.Context, raw entity.RawImage) (entity.Identification, error) {
	if !s.slot.TryAcquire(1) {
		return nil, apperrors.New(apperrors.KindBusy, "session.identify", "previous image is still being identified")
	}
	defer s.slot.Release(1)

	return s.svc.Identify(ctx, raw)
}

// Sessions выдаёт по одной сессии на пользователя.
type Sessions struct {
	svc *IdentificationService

	mu   sync.Mutex
	byID map[int64]*Session
}

func NewSessions(svc *IdentificationService) *Sessions {
	return &Sessions{svc: svc, byID: make(map[int64]*Session)}
}

// For возвращает сессию пользователя, создавая её при первом обращении.
func (s *Sessions) For(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byID[userID]
	if !ok {
		session = NewSession(s.svc)
		s.byID[userID] = session
	}
	return session
}
