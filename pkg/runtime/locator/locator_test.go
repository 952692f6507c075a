package locator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"paygrid/pkg/platform/sentinel"
)

type LocatorSuite struct {
	suite.Suite
	locator *Locator
}

func (s *LocatorSuite) SetupTest() {
	s.locator = New()
}

func TestLocatorSuite(t *testing.T) {
	suite.Run(t, new(LocatorSuite))
}

func (s *LocatorSuite) TestRegisterAndResolve() {
	s.Run("resolves registered instance", func() {
		svc := &struct{ name string }{name: "wallet"}
		s.Require().NoError(s.locator.Register("wallet.service", svc, Options{}))

		got, err := s.locator.Resolve("wallet.service")
		s.Require().NoError(err)
		s.Same(svc, got)
	})

	s.Run("fails with ErrNotFound for unknown name", func() {
		_, err := s.locator.Resolve("ghost")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate registration", func() {
		s.Require().NoError(s.locator.Register("dup", 1, Options{}))
		err := s.locator.Register("dup", 2, Options{})
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("optional declaration can be completed later", func() {
		s.Require().NoError(s.locator.Register("fx.rates", nil, Options{Optional: true}))
		_, err := s.locator.Resolve("fx.rates")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		s.Require().NoError(s.locator.Register("fx.rates", "live", Options{Optional: true}))
		got, err := s.locator.Resolve("fx.rates")
		s.Require().NoError(err)
		s.Equal("live", got)
	})
}

func (s *LocatorSuite) TestResolveOptional() {
	s.Run("returns fallback iff never registered", func() {
		s.Equal("default", s.locator.ResolveOptional("missing", "default"))

		s.Require().NoError(s.locator.Register("present", 42, Options{}))
		s.Equal(42, s.locator.ResolveOptional("present", 0))
	})

	s.Run("returns fallback for declare-only optional entry", func() {
		s.Require().NoError(s.locator.Register("maybe", nil, Options{Optional: true}))
		s.Equal("fallback", s.locator.ResolveOptional("maybe", "fallback"))
	})
}

func (s *LocatorSuite) TestResolveAll() {
	s.Require().NoError(s.locator.Register("a", "A", Options{}))
	s.Require().NoError(s.locator.Register("b", "B", Options{}))
	s.Require().NoError(s.locator.Register("opt", nil, Options{Optional: true}))

	s.Run("resolves full batch", func() {
		got, err := s.locator.ResolveAll([]string{"a", "b"})
		s.Require().NoError(err)
		s.Equal(map[string]any{"a": "A", "b": "B"}, got)
	})

	s.Run("omits absent optional entries", func() {
		got, err := s.locator.ResolveAll([]string{"a", "opt"})
		s.Require().NoError(err)
		s.Equal(map[string]any{"a": "A"}, got)
	})

	s.Run("partial success with errors for required misses", func() {
		got, err := s.locator.ResolveAll([]string{"a", "ghost", "b"})
		s.Require().Error(err)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.Equal(map[string]any{"a": "A", "b": "B"}, got)
	})
}
