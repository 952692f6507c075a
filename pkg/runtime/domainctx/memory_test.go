package domainctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"paygrid/pkg/domain"
	"paygrid/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func newContext(d domain.Name, op domain.Operation) Context {
	return Context{
		RequestID: domain.NewRequestID(),
		Domain:    d,
		Operation: op,
		User:      User{ID: "user-1", Verified: true},
		Client:    Client{IP: "10.0.0.7", Browser: "Firefox"},
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (s *InMemorySuite) TestPutAndGet() {
	s.Run("round-trips a stored context", func() {
		rc := newContext(domain.DomainWallet, domain.OperationWrite)
		s.Require().NoError(s.store.Put(s.ctx, rc))

		got, err := s.store.Get(s.ctx, rc.RequestID)
		s.Require().NoError(err)
		s.Equal(rc, got)
	})

	s.Run("returns ErrNotFound for unknown request", func() {
		_, err := s.store.Get(s.ctx, domain.NewRequestID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects empty request id", func() {
		err := s.store.Put(s.ctx, Context{Domain: domain.DomainUser})
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("last write wins on replace", func() {
		rc := newContext(domain.DomainCard, domain.OperationRead)
		s.Require().NoError(s.store.Put(s.ctx, rc))

		rc.Operation = domain.OperationExecute
		s.Require().NoError(s.store.Put(s.ctx, rc))

		got, err := s.store.Get(s.ctx, rc.RequestID)
		s.Require().NoError(err)
		s.Equal(domain.OperationExecute, got.Operation)
	})
}

func (s *InMemorySuite) TestClear() {
	rc := newContext(domain.DomainTransaction, domain.OperationWrite)
	s.Require().NoError(s.store.Put(s.ctx, rc))
	s.Require().NoError(s.store.Clear(s.ctx, rc.RequestID))

	_, err := s.store.Get(s.ctx, rc.RequestID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Run("clearing an absent id is a no-op", func() {
		s.NoError(s.store.Clear(s.ctx, rc.RequestID))
	})
}

func (s *InMemorySuite) TestByDomain() {
	wallet1 := newContext(domain.DomainWallet, domain.OperationRead)
	wallet2 := newContext(domain.DomainWallet, domain.OperationWrite)
	card := newContext(domain.DomainCard, domain.OperationRead)
	for _, rc := range []Context{wallet1, wallet2, card} {
		s.Require().NoError(s.store.Put(s.ctx, rc))
	}

	wallets, err := s.store.ByDomain(s.ctx, domain.DomainWallet)
	s.Require().NoError(err)
	s.Len(wallets, 2)
	ids := []domain.RequestID{wallets[0].RequestID, wallets[1].RequestID}
	s.ElementsMatch(ids, []domain.RequestID{wallet1.RequestID, wallet2.RequestID})

	empty, err := s.store.ByDomain(s.ctx, domain.DomainRamp)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *InMemorySuite) TestCrossDomain() {
	rc := newContext(domain.DomainWallet, domain.OperationWrite)
	s.False(rc.CrossDomain())

	rc.TargetDomain = domain.DomainWallet
	s.False(rc.CrossDomain())

	rc.TargetDomain = domain.DomainTransaction
	s.True(rc.CrossDomain())
}
