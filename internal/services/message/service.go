package message

import (
	"bytes"
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
	"e2ee/internal/services/session"
	"e2ee/internal/tunnel"
)

// Sessions is what the message service needs from the session service.
type Sessions interface {
	domain.SessionService
	Provider() *crypto.Provider
	PrepareSession(ctx context.Context, passphrase string, peer domain.Username, msg domain.InitialMessage) (*session.Pending, error)
	CommitSession(passphrase string, p *session.Pending) (domain.SessionRecord, error)
}

// Service seals and opens messages over stored sessions.
//
// High-level flow:
//   - Seal: load the session with the recipient, encrypt through its tunnel,
//     persist the advanced state, and attach the X3DH initial message while
//     the initiator has not yet heard back.
//   - Open: bootstrap a session from the sender's initial message if needed,
//     decrypt through the tunnel, persist the advanced state, and mark an
//     initiated session confirmed once the peer's first reply arrives. A
//     bootstrapped session is stored only once its frame authenticates.
type Service struct {
	sessions     Sessions
	sessionStore domain.SessionStore
	logger       *zap.Logger
}

// New constructs a Message Service.
func New(sessions Sessions, sessionStore domain.SessionStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions:     sessions,
		sessionStore: sessionStore,
		logger:       logger.With(zap.Namespace("message")),
	}
}

// Seal encrypts plaintext for to.
//
// The updated ratchet state is persisted before the envelope is returned so
// that a crash can never cause a message key to be reused.
func (s *Service) Seal(
	ctx context.Context,
	passphrase string,
	from domain.Username,
	to domain.Username,
	plaintext []byte,
) (domain.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return domain.Envelope{}, err
	}
	rec, ok, err := s.sessions.GetSession(passphrase, to)
	if err != nil {
		return domain.Envelope{}, err
	}
	if !ok {
		return domain.Envelope{}, errors.Wrapf(domain.ErrSessionNotFound, "peer %s", to)
	}

	t, err := tunnel.Resume(s.sessions.Provider(), rec.State)
	if err != nil {
		return domain.Envelope{}, err
	}
	frame, err := t.Seal(plaintext)
	if err != nil {
		return domain.Envelope{}, err
	}
	if err := s.persist(passphrase, &rec, t); err != nil {
		return domain.Envelope{}, err
	}

	env := domain.Envelope{
		From:      from,
		To:        to,
		Frame:     frame,
		Timestamp: time.Now().UTC().Unix(),
	}
	if rec.Role == domain.RoleInitiator && !rec.Confirmed {
		env.Initial = rec.Initial
	}
	s.logger.Debug("message sealed",
		zap.Stringer("peer", to),
		zap.String("frame", crypto.Fingerprint(frame)),
		zap.Int("size", len(plaintext)),
		zap.Bool("initial", env.Initial != nil))
	return env, nil
}

// Open decrypts env, accepting a new session first when env carries an
// initial message this peer has not seen.
func (s *Service) Open(
	ctx context.Context,
	passphrase string,
	env domain.Envelope,
) (domain.DecryptedMessage, error) {
	if err := ctx.Err(); err != nil {
		return domain.DecryptedMessage{}, err
	}
	rec, ok, err := s.sessions.GetSession(passphrase, env.From)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}

	if env.Initial != nil && !(ok && isAccepted(rec, env.Initial)) {
		var prev *domain.SessionRecord
		if ok {
			prev = &rec
		}
		return s.openInitial(ctx, passphrase, env, prev)
	}
	if !ok {
		return domain.DecryptedMessage{}, errors.Wrapf(domain.ErrSessionNotFound, "peer %s", env.From)
	}

	t, err := tunnel.Resume(s.sessions.Provider(), rec.State)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	pt, err := t.Open(env.Frame)
	switch {
	case err == nil:
	case errors.Is(err, tunnel.ErrAuthentication):
		// The message key is gone either way; keep the state consistent with that.
		if perr := s.persist(passphrase, &rec, t); perr != nil {
			s.logger.Error("persist after failed message", zap.Error(perr))
		}
		return domain.DecryptedMessage{}, err
	default:
		s.logger.Debug("message rejected",
			zap.Stringer("peer", env.From),
			zap.String("frame", crypto.Fingerprint(env.Frame)),
			zap.Error(err))
		return domain.DecryptedMessage{}, err
	}

	if rec.Role == domain.RoleInitiator && !rec.Confirmed {
		rec.Confirmed = true
		rec.Initial = nil
		s.logger.Info("session confirmed", zap.Stringer("peer", env.From), zap.Stringer("session", rec.ID))
	}
	if err := s.persist(passphrase, &rec, t); err != nil {
		crypto.Wipe(pt)
		return domain.DecryptedMessage{}, err
	}
	return domain.DecryptedMessage{
		From:      env.From,
		To:        env.To,
		Plaintext: pt,
		Timestamp: env.Timestamp,
	}, nil
}

// openInitial accepts the handshake in env in memory and stores the new
// session only if env's frame authenticates under it. A handshake from a
// known peer under different identity keys is refused.
func (s *Service) openInitial(
	ctx context.Context,
	passphrase string,
	env domain.Envelope,
	prev *domain.SessionRecord,
) (domain.DecryptedMessage, error) {
	p, err := s.sessions.PrepareSession(ctx, passphrase, env.From, *env.Initial)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	if prev != nil && prev.PeerFingerprint != p.Record.PeerFingerprint {
		s.logger.Warn("handshake under a different identity refused",
			zap.Stringer("peer", env.From),
			zap.Stringer("known", prev.PeerFingerprint),
			zap.Stringer("offered", p.Record.PeerFingerprint))
		return domain.DecryptedMessage{}, errors.Wrapf(domain.ErrPeerIdentityChanged,
			"peer %s: known %s, offered %s", env.From, prev.PeerFingerprint, p.Record.PeerFingerprint)
	}

	pt, err := p.Tunnel.Open(env.Frame)
	if err != nil {
		s.logger.Debug("initial message rejected",
			zap.Stringer("peer", env.From),
			zap.String("frame", crypto.Fingerprint(env.Frame)),
			zap.Error(err))
		return domain.DecryptedMessage{}, err
	}
	rec, err := s.sessions.CommitSession(passphrase, p)
	if err != nil {
		crypto.Wipe(pt)
		return domain.DecryptedMessage{}, err
	}
	if prev != nil {
		s.logger.Info("new handshake from peer, replaced session",
			zap.Stringer("peer", env.From),
			zap.Stringer("old", prev.ID),
			zap.Stringer("session", rec.ID))
	}
	return domain.DecryptedMessage{
		From:      env.From,
		To:        env.To,
		Plaintext: pt,
		Timestamp: env.Timestamp,
	}, nil
}

func (s *Service) persist(passphrase string, rec *domain.SessionRecord, t *tunnel.Tunnel) error {
	state, err := t.Export()
	if err != nil {
		return err
	}
	crypto.Wipe(rec.State)
	rec.State = state
	rec.UpdatedUTC = time.Now().UTC().Unix()
	return s.sessionStore.SaveSession(passphrase, *rec)
}

// isAccepted reports whether rec was created by accepting msg.
func isAccepted(rec domain.SessionRecord, msg *domain.InitialMessage) bool {
	return rec.Role == domain.RoleResponder && rec.Initial != nil &&
		bytes.Equal(rec.Initial.EphemeralKey, msg.EphemeralKey) &&
		bytes.Equal(rec.Initial.IdentityKey, msg.IdentityKey)
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
