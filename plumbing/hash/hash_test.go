package hash

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type HashSuite struct {
	suite.Suite
}

func TestHashSuite(t *testing.T) {
	suite.Run(t, new(HashSuite))
}

func (s *HashSuite) TestNewComputesSHA1() {
	h := New()
	h.Write([]byte("blob 6\x00hello\n"))
	got := FromBytes(h.Sum(nil))

	// git's well-known hash of "hello\n".
	s.Equal("ce013625030ba8dba906f756967f9e9ca394464a", got.String())
}

func (s *HashSuite) TestFromHexRoundTrip() {
	const hex = "ce013625030ba8dba906f756967f9e9ca394464a"
	h, ok := FromHex(hex)
	s.Require().True(ok)
	s.Equal(hex, h.String())
	s.False(h.IsZero())
}

func (s *HashSuite) TestFromHexRejectsMalformedInput() {
	_, ok := FromHex("ce01")
	s.False(ok)

	_, ok = FromHex("zz013625030ba8dba906f756967f9e9ca394464a")
	s.False(ok)
}

func (s *HashSuite) TestShort() {
	h, _ := FromHex("ce013625030ba8dba906f756967f9e9ca394464a")
	s.Equal("ce0136", h.Short(6))
}

func (s *HashSuite) TestCompareAndSort() {
	a, _ := FromHex("0000000000000000000000000000000000000001")
	b, _ := FromHex("0000000000000000000000000000000000000002")

	s.Equal(-1, a.Compare(b))
	s.Equal(1, b.Compare(a))
	s.Equal(0, a.Compare(a))

	hs := []Hash{b, a}
	Sort(hs)
	s.Equal([]Hash{a, b}, hs)
}
