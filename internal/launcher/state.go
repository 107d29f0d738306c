// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"errors"
)

// NotActivated and Activated are the two activation states. A session that
// starts with the environment flag set is Activated from the beginning.
const (
	NotActivated ActivationState = iota
	Activated
)

// errActivationAttempted guards the single allowed transition.
var errActivationAttempted = errors.New("activation already attempted")

type (
	// ActivationState tracks whether the virtual environment is active.
	ActivationState int

	// Session holds the activation state and the environment the downstream
	// will inherit. NotActivated moves to Activated at most once.
	Session struct {
		state     ActivationState
		env       map[string]string
		attempted bool
	}
)

// String returns the state name.
func (s ActivationState) String() string {
	switch s {
	case NotActivated:
		return "not-activated"
	case Activated:
		return "activated"
	default:
		return "unknown"
	}
}

// NewSession starts a session over environ. envActive reflects the
// environment flag as observed by the caller.
func NewSession(envActive bool, environ []string) *Session {
	s := &Session{env: EnvToMap(environ)}
	if envActive {
		s.state = Activated
	}
	return s
}

// State returns the current activation state.
func (s *Session) State() ActivationState { return s.state }

// Environ returns the session environment as sorted KEY=VALUE entries.
func (s *Session) Environ() []string { return EnvToSlice(s.env) }

// Activate runs the activator unless the session is already Activated.
// On success the activator's environment replaces the session environment.
// A failed activation is not retried.
func (s *Session) Activate(ctx context.Context, a Activator, req ActivationRequest) (bool, error) {
	if s.state == Activated {
		return false, nil
	}
	if s.attempted {
		return false, errActivationAttempted
	}
	s.attempted = true

	req.Environ = EnvToSlice(s.env)
	activated, err := a.Activate(ctx, req)
	if err != nil {
		return true, err
	}

	env := EnvToMap(activated)
	restoreBookkeeping(s.env, env)
	s.env = env
	s.state = Activated
	return true, nil
}

// Set overrides one variable in the session environment.
func (s *Session) Set(key, value string) {
	s.env[key] = value
}
