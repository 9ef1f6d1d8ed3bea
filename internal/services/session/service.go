package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
	"e2ee/internal/protocol/ratchet"
	"e2ee/internal/protocol/x3dh"
	"e2ee/internal/tunnel"
)

// Options tune the sessions this service creates.
type Options struct {
	Limits ratchet.Limits
	Mode   tunnel.Mode
}

// DefaultOptions returns the default ratchet limits over an ordered tunnel.
func DefaultOptions() Options {
	return Options{Limits: ratchet.DefaultLimits(), Mode: tunnel.Ordered}
}

// Service performs X3DH and persists the resulting ratchet sessions.
//
// A session record holds the serialised tunnel (ratchet state and framing
// policy) plus the metadata needed to keep talking to one peer.
// This service handles:
//   - Retrieving our own identity keys.
//   - Running X3DH as initiator against a peer's bundle, or as responder to a
//     peer's initial message. A responder session can be prepared in memory
//     and committed once its first frame authenticates.
//   - Seeding the Double Ratchet from the shared key.
//   - Persisting the session for later message encryption.
type Service struct {
	cfg          *x3dh.Config
	idStore      domain.IdentityStore
	prekeyStore  domain.PreKeyStore
	sessionStore domain.SessionStore
	opts         Options
	logger       *zap.Logger
}

// New constructs a Session Service with the given stores.
func New(
	cfg *x3dh.Config,
	idStore domain.IdentityStore,
	prekeyStore domain.PreKeyStore,
	sessionStore domain.SessionStore,
	opts Options,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:          cfg,
		idStore:      idStore,
		prekeyStore:  prekeyStore,
		sessionStore: sessionStore,
		opts:         opts,
		logger:       logger.With(zap.Namespace("session")),
	}
}

// Provider returns the crypto provider sessions are restored against.
func (s *Service) Provider() *crypto.Provider { return s.cfg.Provider() }

// InitiateSession runs X3DH against the peer's prekey bundle and stores the
// resulting session.
//
// Steps:
//  1. Load our own identity key pair from the identity store.
//  2. Verify the bundle and run X3DH as the initiator.
//  3. Start the Double Ratchet towards the peer's signed prekey.
//  4. Persist the session together with the initial message, which is
//     attached to every outgoing envelope until the peer replies.
func (s *Service) InitiateSession(
	ctx context.Context,
	passphrase string,
	peer domain.Username,
	bundle domain.PreKeyBundle,
) (domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.SessionRecord{}, err
	}
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.SessionRecord{}, err
	}

	res, err := x3dh.Initiate(s.cfg, id, bundle)
	if err != nil {
		s.logger.Warn("handshake rejected", zap.Stringer("peer", peer), zap.Error(err))
		return domain.SessionRecord{}, err
	}
	defer res.Wipe()

	sess, err := ratchet.NewInitiator(res.Suite, res.SharedKey, res.AssociatedData, res.PeerRatchetKey,
		ratchet.WithLimits(s.opts.Limits))
	if err != nil {
		return domain.SessionRecord{}, err
	}

	rec, err := s.store(passphrase, s.record(peer, domain.RoleInitiator, res), tunnel.New(sess, s.opts.Mode))
	if err != nil {
		return domain.SessionRecord{}, err
	}
	s.logger.Info("session initiated",
		zap.Stringer("peer", peer),
		zap.Stringer("session", rec.ID),
		zap.Stringer("suite", rec.Suite),
		zap.Bool("oneTimePreKey", res.Initial.HasOneTimeKey))
	return rec, nil
}

// AcceptSession runs X3DH as the responder for a peer's initial message and
// stores the resulting session, replacing any earlier one with that peer.
// The named one-time prekey is consumed.
func (s *Service) AcceptSession(
	ctx context.Context,
	passphrase string,
	peer domain.Username,
	msg domain.InitialMessage,
) (domain.SessionRecord, error) {
	p, err := s.PrepareSession(ctx, passphrase, peer, msg)
	if err != nil {
		return domain.SessionRecord{}, err
	}
	return s.CommitSession(passphrase, p)
}

// Pending is a responder session that exists only in memory. Its tunnel can
// open the initiator's first frame before anything is stored or consumed.
type Pending struct {
	Record domain.SessionRecord
	Tunnel *tunnel.Tunnel

	oneTime *domain.OneTimePreKeyID
}

// PrepareSession runs X3DH as the responder without storing the session or
// consuming the one-time prekey. CommitSession does both.
func (s *Service) PrepareSession(
	ctx context.Context,
	passphrase string,
	peer domain.Username,
	msg domain.InitialMessage,
) (*Pending, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}

	prekeys := &deferredTake{PreKeyStore: s.prekeyStore}
	res, err := x3dh.Respond(s.cfg, id, prekeys, msg)
	if err != nil {
		s.logger.Warn("handshake rejected", zap.Stringer("peer", peer), zap.Error(err))
		return nil, err
	}
	defer res.Wipe()

	sess, err := ratchet.NewResponder(res.Suite, res.SharedKey, res.AssociatedData, res.RatchetKey,
		ratchet.WithLimits(s.opts.Limits))
	if err != nil {
		return nil, err
	}

	// The accepted initial message is kept so repeats of it are recognised.
	accepted := msg
	res.Initial = &accepted
	return &Pending{
		Record:  s.record(peer, domain.RoleResponder, res),
		Tunnel:  tunnel.New(sess, s.opts.Mode),
		oneTime: prekeys.taken,
	}, nil
}

// CommitSession consumes the one-time prekey p was derived from and stores
// p's session in its current state. It fails with
// ErrOneTimePreKeyConsumed if another handshake took the key first.
func (s *Service) CommitSession(passphrase string, p *Pending) (domain.SessionRecord, error) {
	if p.oneTime != nil {
		_, ok, err := s.prekeyStore.TakeOneTimePreKey(*p.oneTime)
		if err != nil {
			return domain.SessionRecord{}, errors.Wrap(err, "take one-time prekey")
		}
		if !ok {
			return domain.SessionRecord{}, errors.Wrapf(domain.ErrOneTimePreKeyConsumed, "id %d", *p.oneTime)
		}
	}
	rec, err := s.store(passphrase, p.Record, p.Tunnel)
	if err != nil {
		return domain.SessionRecord{}, err
	}
	s.logger.Info("session accepted",
		zap.Stringer("peer", rec.Peer),
		zap.Stringer("session", rec.ID),
		zap.Stringer("suite", rec.Suite),
		zap.Bool("oneTimePreKey", p.oneTime != nil))
	return rec, nil
}

// deferredTake lets x3dh.Respond read the one-time prekey it names while
// leaving it in storage until CommitSession.
type deferredTake struct {
	domain.PreKeyStore
	taken *domain.OneTimePreKeyID
}

func (d *deferredTake) TakeOneTimePreKey(id domain.OneTimePreKeyID) (domain.OneTimePreKey, bool, error) {
	k, ok, err := d.PreKeyStore.LoadOneTimePreKey(id)
	if err == nil && ok {
		d.taken = &id
	}
	return k, ok, err
}

// GetSession retrieves a stored session for the given peer.
func (s *Service) GetSession(passphrase string, peer domain.Username) (domain.SessionRecord, bool, error) {
	return s.sessionStore.LoadSession(passphrase, peer)
}

func (s *Service) record(peer domain.Username, role domain.Role, res *x3dh.Result) domain.SessionRecord {
	now := time.Now().UTC().Unix()
	return domain.SessionRecord{
		ID:              domain.SessionID(uuid.NewString()),
		Peer:            peer,
		Role:            role,
		Suite:           res.Suite.ID,
		PeerFingerprint: res.PeerIdentity.Fingerprint(res.Suite),
		PeerSigningKey:  res.PeerIdentity.SigningKey,
		CreatedUTC:      now,
		UpdatedUTC:      now,
		Initial:         res.Initial,
		// The responder has, by construction, heard from the initiator.
		Confirmed: role == domain.RoleResponder,
	}
}

func (s *Service) store(passphrase string, rec domain.SessionRecord, t *tunnel.Tunnel) (domain.SessionRecord, error) {
	state, err := t.Export()
	if err != nil {
		return domain.SessionRecord{}, err
	}
	rec.State = state
	rec.UpdatedUTC = time.Now().UTC().Unix()
	if err := s.sessionStore.SaveSession(passphrase, rec); err != nil {
		return domain.SessionRecord{}, err
	}
	return rec, nil
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
