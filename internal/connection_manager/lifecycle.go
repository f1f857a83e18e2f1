package connection_manager

import (
	"context"
	"errors"
	"sync"

	"github.com/sahulatai/agentic-backend/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

var ErrLifecycleNotInitialized = errors.New("connection lifecycle is not initialized")

// Lifecycle owns every session opened by the manager and closes them at shutdown.
type Lifecycle struct {
	initLock    sync.Mutex
	initialized bool

	sessionsLock sync.Mutex
	sessions     []Session
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

func (l *Lifecycle) EnsureInitialized() {
	l.initLock.Lock()
	defer l.initLock.Unlock()

	if l.initialized {
		return
	}

	l.sessionsLock.Lock()
	l.sessions = nil
	l.sessionsLock.Unlock()

	l.initialized = true
	logger.Log.Debug("Connection lifecycle initialized")
}

func (l *Lifecycle) Initialized() bool {
	l.initLock.Lock()
	defer l.initLock.Unlock()

	return l.initialized
}

// Adopt hands ownership of an open session to the lifecycle.
func (l *Lifecycle) Adopt(session Session) error {
	l.initLock.Lock()
	defer l.initLock.Unlock()

	if !l.initialized {
		return ErrLifecycleNotInitialized
	}

	l.sessionsLock.Lock()
	l.sessions = append(l.sessions, session)
	l.sessionsLock.Unlock()

	metrics.adoptedSessionGauge.Inc()

	return nil
}

func (l *Lifecycle) Len() int {
	l.sessionsLock.Lock()
	defer l.sessionsLock.Unlock()

	return len(l.sessions)
}

// Shutdown closes every adopted session, newest first. Sessions are always
// closed, even once ctx is done, since nothing else holds them afterwards.
func (l *Lifecycle) Shutdown(ctx context.Context) error {
	l.initLock.Lock()
	defer l.initLock.Unlock()

	if !l.initialized {
		return nil
	}
	l.initialized = false

	l.sessionsLock.Lock()
	sessions := l.sessions
	l.sessions = nil
	l.sessionsLock.Unlock()

	if ctx.Err() != nil {
		logger.Log.WithFields(logrus.Fields{"sessions": len(sessions)}).Warn("Shutdown deadline already passed, closing sessions anyway")
	}

	var errs []error
	for i := len(sessions) - 1; i >= 0; i-- {
		if err := sessions[i].Close(); err != nil {
			metrics.sessionCloseErrorCount.Inc()
			logger.LogError("Unable to close capability server session", err)
			errs = append(errs, err)
		}
	}

	metrics.adoptedSessionGauge.Set(0)

	logger.Log.WithFields(logrus.Fields{"sessions": len(sessions)}).Info("Connection lifecycle shut down")

	return errors.Join(errs...)
}
